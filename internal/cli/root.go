/*
PURPOSE:
  Defines the root Cobra command for the adapter-eval CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/adapter-eval/main.go
  - Calls: Child commands (run, check-dataset)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/adapter-eval/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"github.com/spf13/cobra"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "adapter-eval",
		Short: "Batch evaluation harness for fine-tuned adapter checkpoints",
		Long:  `Compares adapter checkpoints of a causal language model on a fixed translation benchmark. Use 'run --help' for evaluation options.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./adapter_eval.yaml)")
}
