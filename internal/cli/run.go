/*
PURPOSE:
  Defines the 'run' subcommand.
  Loads the benchmark once, then evaluates every checkpoint under the
  chosen decoding preset.

REQUIREMENTS:
  User-specified:
  - Flags: --base_model, --checkpoints (required), --output-dir,
    --dataset, --preset, --engine-url, --jsonl.
  - Preset validation happens before the dataset is loaded.

  Implementation-discovered:
  - Config file first, flag overrides win.
  - Run-scoped log attributes (run_id) make interleaved logs from
    repeated resumable runs attributable.

ARCHITECTURE INTEGRATION:
  - Calls: internal/dataset.Load, internal/engine.Run
  - Uses: internal/config, internal/tokenizer

ERROR HANDLING:
  - Returns error if config/preset/dataset load fails or any checkpoint
    fails; main turns that into a non-zero exit.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate preset -> Load dataset ->
    Engine.Run.

USAGE:
  adapter-eval run --checkpoints adapters/ckpt1,adapters/ckpt2

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/uatranslate/adapter-eval/internal/bench"
	"github.com/uatranslate/adapter-eval/internal/config"
	"github.com/uatranslate/adapter-eval/internal/dataset"
	"github.com/uatranslate/adapter-eval/internal/engine"
	"github.com/uatranslate/adapter-eval/internal/output"
	"github.com/uatranslate/adapter-eval/internal/tokenizer"
)

var (
	baseModelOverride   string
	checkpointsOverride []string
	outputDirOverride   string
	datasetOverride     string
	presetOverride      string
	engineURLOverride   string
	jsonlOverride       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate adapter checkpoints on the translation benchmark",
	Long: `Evaluates one or more adapter checkpoints against the benchmark.
For each checkpoint the harness:
1. Resolves the result table path from the checkpoint slug and preset.
2. Skips the checkpoint if the table already exists (idempotent resume).
3. Otherwise merges the adapter into a copy of the base model on the engine,
   generates one completion per benchmark example, and writes the table.

Tables are committed atomically: a crashed run never leaves a table that
the next run would mistake for complete. A failed checkpoint is logged and
the remaining checkpoints are still attempted.`,
	Example: `  # Greedy evaluation of two checkpoints
  adapter-eval run --checkpoints adapters/ckpt1,adapters/ckpt2

  # Beam search with a wider beam and a custom output directory
  adapter-eval run --checkpoints adapters/ckpt1 --preset beam25 --output-dir ./eval-beam25

  # Point at a remote engine and keep a JSON-lines audit trail
  adapter-eval run --checkpoints adapters/ckpt1 --engine-url http://gpu-box:9090 --jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// 2. Overrides
		if baseModelOverride != "" {
			cfg.BaseModel = baseModelOverride
		}
		if len(checkpointsOverride) > 0 {
			cfg.Checkpoints = checkpointsOverride
		}
		if outputDirOverride != "" {
			cfg.OutputDir = outputDirOverride
		}
		if datasetOverride != "" {
			cfg.Dataset = datasetOverride
		}
		if presetOverride != "" {
			cfg.Preset = presetOverride
		}
		if engineURLOverride != "" {
			cfg.EngineURL = engineURLOverride
		}
		if cmd.Flags().Changed("jsonl") {
			cfg.JSONL = jsonlOverride
		}

		// 3. Validate arguments before any dataset or engine work.
		preset, err := bench.ParsePreset(cfg.Preset)
		if err != nil {
			return err
		}
		if len(cfg.Checkpoints) == 0 {
			return fmt.Errorf("no checkpoints to evaluate: pass --checkpoints or set them in the config file")
		}

		runID := uuid.NewString()[:8]
		output.SetLogger(output.Logger.With("run_id", runID))
		output.Logger.Info("Starting evaluation run",
			"checkpoints", len(cfg.Checkpoints), "preset", preset.String(), "base_model", cfg.BaseModel)

		// 4. Load + tokenize the benchmark once, shared across checkpoints.
		client := engine.NewClient(cfg.EngineURL)
		tok, err := tokenizer.NewRemote(client, cfg.MaxSeqLen)
		if err != nil {
			return err
		}
		ds, err := dataset.Load(cfg.Dataset, tok)
		if err != nil {
			return err
		}

		// 5. Execution
		return engine.Run(cfg, preset, client, tok, ds)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&baseModelOverride, "base_model", "", "Base causal language model identifier")
	runCmd.Flags().StringSliceVar(&checkpointsOverride, "checkpoints", nil, "Comma-separated list of adapter checkpoints to evaluate")
	runCmd.Flags().StringVarP(&outputDirOverride, "output-dir", "o", "", "Output directory for result tables")
	runCmd.Flags().StringVar(&datasetOverride, "dataset", "", "Path to the benchmark CSV")
	runCmd.Flags().StringVar(&presetOverride, "preset", "", "Decoding preset (greedy|beam25|beam15|beam10)")
	runCmd.Flags().StringVar(&engineURLOverride, "engine-url", "", "Text generation engine URL")
	runCmd.Flags().BoolVar(&jsonlOverride, "jsonl", false, "Also append results to a JSON-lines sidecar")
}
