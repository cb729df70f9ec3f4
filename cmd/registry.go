package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindglass/debate-engine/pkg/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and validate the agent/industry registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Load a registry YAML file and report validation errors",
	Long: `validate applies the invariants of spec.md §4.3: every industry
overlay pair must reference a configured agent id, and a synthesizer agent
must exist. It exits non-zero on the first violation found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "configs/agents.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		reg, err := registry.Load(path)
		if err != nil {
			return fmt.Errorf("registry invalid: %w", err)
		}

		resolved, err := reg.Resolve("", nil)
		if err != nil {
			return fmt.Errorf("registry invalid: base resolution failed: %w", err)
		}

		fmt.Printf("%s: ok, %d base agents resolved\n", path, len(resolved))
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryValidateCmd)
	rootCmd.AddCommand(registryCmd)
}
