// Package cmd implements the debate engine's CLI, grounded in the
// teacher's cobra/viper root command shape (cmd/root.go): persistent
// --config/--verbose flags, AutomaticEnv binding, and a logger initialized
// before any subcommand runs. Transport (serving the protocol over a real
// network listener) is out of scope per spec.md §1; serve below wires the
// in-scope core to a minimal illustrative stdio loop only.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mindglass/debate-engine/internal/version"
	"github.com/mindglass/debate-engine/pkg/log"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "debate-engine",
	Short: "Run and benchmark the multi-agent debate orchestration engine",
	Long: `debate-engine drives a scripted multi-round debate among specialized
LLM agents, streaming token-by-token output tagged by speaker and
accepting mid-debate constraint injection.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.debate-engine.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.Version = version.String()

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding verbose flag: %v\n", err)
	}
}

func initConfig() {
	debug := "false"
	if viper.GetBool("verbose") {
		debug = "true"
	}
	log.Configure(os.Getenv("LOG_FORMAT"), debug)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".debate-engine")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("loaded configuration file")
	}

	rootCmd.PersistentFlags().Visit(func(flag *pflag.Flag) {
		log.WithField(flag.Name, flag.Value.String()).Debug("flag set explicitly")
	})
}
