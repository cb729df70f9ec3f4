package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindglass/debate-engine/internal/config"
	"github.com/mindglass/debate-engine/internal/metrics"
	"github.com/mindglass/debate-engine/pkg/debate"
	"github.com/mindglass/debate-engine/pkg/log"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/registry"
	"github.com/mindglass/debate-engine/pkg/session"
	"github.com/mindglass/debate-engine/pkg/upstream"
)

var serveMetricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one session handler over stdio",
	Long: `serve wires the session handler (C9) to a single NDJSON-over-stdio
session: one JSON command per input line, one JSON record per output line.
Real transport (WebSocket/HTTP) is out of scope for the core engine
(spec.md §1); this is an illustrative, single-session entrypoint for local
use and manual protocol testing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", ":9090", "address to expose Prometheus metrics on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	metricsServer := metrics.NewServer(metrics.ServerConfig{Addr: serveMetricsAddr})
	go func() {
		if err := metricsServer.Start(); err != nil {
			log.WithError(err).Error("metrics server exited")
		}
	}()
	defer metricsServer.Stop(context.Background())
	met := metricsServer.Metrics()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	send := func(r message.Record) {
		body, err := message.Encode(r)
		if err != nil {
			log.WithError(err).Error("encode outbound record")
			return
		}
		out.Write(body)
		out.WriteByte('\n')
		out.Flush()
	}

	tiers := debate.ModelTiers{Fast: cfg.FastModel, Pro: cfg.ProModel, Fallback: cfg.FallbackModel}
	newAdapter := func(apiKey string) upstream.Adapter {
		return upstream.NewOpenAICompatAdapter("https://api.cerebras.ai/v1", apiKey)
	}

	sess := session.New(func() *debate.Debate {
		return debate.New(reg, tiers, newAdapter, send, nowMS).WithMetrics(met)
	}, send, cfg.CerebrasAPIKey).WithMetrics(met)
	defer sess.Close()

	log.WithFields(map[string]interface{}{"host": cfg.Host, "port": cfg.Port, "metrics_addr": serveMetricsAddr}).Info("session ready on stdio")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		sess.HandleMessage(append([]byte(nil), line...))
	}
	return scanner.Err()
}
