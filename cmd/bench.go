package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindglass/debate-engine/internal/config"
	"github.com/mindglass/debate-engine/pkg/benchmark"
	"github.com/mindglass/debate-engine/pkg/debate"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/registry"
	"github.com/mindglass/debate-engine/pkg/upstream"
)

var (
	benchQuery    string
	benchIndustry string
	benchTier     string
	benchFake     bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run one debate and print its aggregated benchmark record",
	Long: `bench drives pkg/debate.Debate.Stream exactly as a real session
handler would, collecting the debate_complete record's benchmark payload
and printing it as a table. With --fake it runs against a synthetic
in-process adapter instead of a real upstream, for reproducible timing
without a network dependency.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchQuery, "query", "Should we pivot to B2B?", "debate question")
	benchCmd.Flags().StringVar(&benchIndustry, "industry", "", "industry overlay key")
	benchCmd.Flags().StringVar(&benchTier, "tier", "fast", "model tier: fast or pro")
	benchCmd.Flags().BoolVar(&benchFake, "fake", false, "use a synthetic in-process adapter instead of a real upstream")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	tiers := debate.ModelTiers{Fast: cfg.FastModel, Pro: cfg.ProModel, Fallback: cfg.FallbackModel}

	var newAdapter debate.AdapterFactory
	if benchFake {
		newAdapter = func(apiKey string) upstream.Adapter {
			return &upstream.FakeAdapter{
				Words:      "This is a synthetic response used to benchmark the round executor without a network dependency.",
				TokenDelay: 5 * time.Millisecond,
			}
		}
	} else {
		newAdapter = func(apiKey string) upstream.Adapter {
			return upstream.NewOpenAICompatAdapter("https://api.cerebras.ai/v1", apiKey)
		}
	}

	apiKey := cfg.CerebrasAPIKey
	if benchFake {
		apiKey = "fake"
	}
	if apiKey == "" {
		return fmt.Errorf("no upstream API key configured; set CEREBRAS_API_KEY or pass --fake")
	}

	var complete *message.DebateCompleteRecord
	send := func(r message.Record) {
		if rec, ok := r.(message.DebateCompleteRecord); ok {
			complete = &rec
		}
	}

	d := debate.New(reg, tiers, newAdapter, send, nowMS)
	d.Stream(context.Background(), message.StartDebateCommand{
		Query:    benchQuery,
		Model:    benchTier,
		Industry: benchIndustry,
	}, apiKey)

	if complete == nil {
		return fmt.Errorf("debate did not complete")
	}

	var rec benchmark.Record
	if err := json.Unmarshal(complete.Benchmark, &rec); err != nil {
		return fmt.Errorf("decode benchmark record: %w", err)
	}

	fmt.Printf("total wall time:   %.2fs\n", rec.TotalWallTime)
	fmt.Printf("time to first tok: %.3fs\n", rec.TimeToFirstTokenGlobal)
	fmt.Printf("total tokens:      %d\n", complete.TotalTokens)
	fmt.Printf("avg tokens/sec:    %.1f\n\n", complete.AvgTokensPerSec)

	fmt.Printf("%-6s %-14s %-16s %8s %8s %8s %8s\n", "round", "agent", "model", "ttft", "p50itl", "p95itl", "tokens")
	for _, a := range rec.Agents {
		fmt.Printf("%-6d %-14s %-16s %8.3f %8.3f %8.3f %8d\n", a.Round, a.AgentID, a.Model, a.TimeToFirstToken, a.P50ITL, a.P95ITL, a.TotalTokens)
	}

	return nil
}
