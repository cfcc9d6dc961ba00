/*
PURPOSE:
  Defines the 'check-dataset' subcommand.
  Validates the benchmark file and reports prompt token statistics
  without needing a live engine.

REQUIREMENTS:
  User-specified:
  - Catch column-contract violations before burning accelerator time.

  Implementation-discovered:
  - The local BPE tokenizer approximates the engine's vocabulary, so
    counts are estimates; still good enough to flag over-limit prompts.

ARCHITECTURE INTEGRATION:
  - Calls: internal/dataset.Load with the local tokenizer.

ERROR HANDLING:
  - Exits non-zero on load failure.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  adapter-eval check-dataset --dataset data/flores_eng_ukr_major.csv

RELATED FILES:
  - internal/tokenizer/local.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uatranslate/adapter-eval/internal/config"
	"github.com/uatranslate/adapter-eval/internal/dataset"
	"github.com/uatranslate/adapter-eval/internal/tokenizer"
)

var checkDatasetCmd = &cobra.Command{
	Use:   "check-dataset",
	Short: "Validate the benchmark file and report prompt token statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if datasetOverride != "" {
			cfg.Dataset = datasetOverride
		}

		tok, err := tokenizer.NewLocal(cfg.MaxSeqLen)
		if err != nil {
			return err
		}

		ds, err := dataset.Load(cfg.Dataset, tok)
		if err != nil {
			return err
		}
		if len(ds) == 0 {
			fmt.Printf("%s: header OK, no examples\n", cfg.Dataset)
			return nil
		}

		min, max, total := -1, 0, 0
		var overLimit []string
		for _, ex := range ds {
			n := tok.Count(ex.Prompt)
			total += n
			if min < 0 || n < min {
				min = n
			}
			if n > max {
				max = n
			}
			if n > cfg.MaxSeqLen {
				overLimit = append(overLimit, ex.ID)
			}
		}

		fmt.Printf("%s: %d examples\n", cfg.Dataset, len(ds))
		fmt.Printf("prompt tokens (approx.): min=%d max=%d mean=%.1f limit=%d\n",
			min, max, float64(total)/float64(len(ds)), cfg.MaxSeqLen)
		if len(overLimit) > 0 {
			fmt.Printf("WARNING: %d prompts exceed the token limit and would be truncated:\n", len(overLimit))
			for _, id := range overLimit {
				fmt.Printf("- %s\n", id)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkDatasetCmd)
	checkDatasetCmd.Flags().StringVar(&datasetOverride, "dataset", "", "Path to the benchmark CSV")
}
