/*
PURPOSE:
  High-level runner that orchestrates checkpoint evaluation.
  Loops through checkpoints, skipping completed ones, and runs the
  generation loop over the whole benchmark for the rest.

REQUIREMENTS:
  User-specified:
  - Idempotent resume: a checkpoint whose result table already exists is
    skipped without touching the engine.
  - One specialized model on the accelerator at a time; release before
    the next checkpoint.
  - A failed checkpoint must not stop the run; remaining checkpoints are
    still attempted and the error surfaces in the exit code.

  Implementation-discovered:
  - Result tables commit via temp-file + rename so a crash never leaves
    a file that passes the already-exists check.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/bench, internal/config, internal/output,
    internal/prompt

ERROR HANDLING:
  - Per-checkpoint failures are logged and contained; Run reports how
    many checkpoints failed.
  - A missing response marker in decoded output degrades to an empty
    hypothesis with a per-example warning, never an error.

IMPLEMENTATION RULES:
  - Strictly sequential: no parallelism across checkpoints or examples.
  - Result rows appear in dataset order; one row per returned sequence.

USAGE:
  err := engine.Run(cfg, preset, client, tok, dataset)

RELATED FILES:
  - internal/engine/client.go
  - internal/output/csv.go

MAINTENANCE:
  - Update iteration logic if multi-accelerator support is introduced.
*/

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uatranslate/adapter-eval/internal/bench"
	"github.com/uatranslate/adapter-eval/internal/config"
	"github.com/uatranslate/adapter-eval/internal/output"
	"github.com/uatranslate/adapter-eval/internal/prompt"
)

// Generator is the slice of the engine contract the runner consumes.
// *Client satisfies it; tests substitute fakes.
type Generator interface {
	LoadBase(model string) (Handle, error)
	Specialize(base Handle, checkpoint string) (Handle, error)
	Release(h Handle) error
	Generate(req GenerateRequest) ([][]int, error)
}

// Tokenizer is the decoding side of the tokenizer capability the runner
// needs: turning generated ids back into text and supplying the pad id.
type Tokenizer interface {
	Decode(ids []int) (string, error)
	EOSTokenID() int
}

// Slug renders a checkpoint identifier as a single filename segment:
// path separators become "-".
func Slug(checkpoint string) string {
	s := strings.ReplaceAll(checkpoint, "/", "-")
	return strings.ReplaceAll(s, string(os.PathSeparator), "-")
}

// TablePath is the idempotence key: one file per (checkpoint, preset).
func TablePath(outputDir, checkpoint string, preset bench.Preset) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s.%s.csv", Slug(checkpoint), preset))
}

// Run evaluates every configured checkpoint against the loaded benchmark.
// Checkpoints are processed in the order supplied; a checkpoint whose
// table already exists is skipped. Run returns an error if any attempted
// checkpoint failed, after all of them have been attempted.
func Run(cfg *config.Config, preset bench.Preset, gen Generator, tok Tokenizer, ds bench.Dataset) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	var sidecar *output.JSONLWriter
	if cfg.JSONL {
		var err error
		sidecar, err = output.NewJSONLWriter(filepath.Join(cfg.OutputDir, "results.jsonl"))
		if err != nil {
			return fmt.Errorf("failed to open results sidecar: %w", err)
		}
		defer sidecar.Close()
	}

	output.Logger.Info("Loading base model", "model", cfg.BaseModel)
	base, err := gen.LoadBase(cfg.BaseModel)
	if err != nil {
		return fmt.Errorf("failed to load base model %s: %w", cfg.BaseModel, err)
	}
	output.Logger.Info("Loaded base model", "model", cfg.BaseModel)

	failed := 0
	for _, checkpoint := range cfg.Checkpoints {
		tablePath := TablePath(cfg.OutputDir, checkpoint, preset)

		if _, err := os.Stat(tablePath); err == nil {
			output.Logger.Info("Skipping checkpoint - result table already exists",
				"checkpoint", checkpoint, "table", tablePath)
			continue
		}

		output.Logger.Info("Evaluating checkpoint",
			"checkpoint", checkpoint, "preset", preset.String(), "examples", len(ds))

		if err := evaluateCheckpoint(cfg, preset, gen, tok, ds, base, checkpoint, tablePath, sidecar); err != nil {
			output.Logger.Error("Checkpoint evaluation failed",
				"checkpoint", checkpoint, "error", err)
			failed++
			continue
		}

		output.Logger.Info("Checkpoint complete", "checkpoint", checkpoint, "table", tablePath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checkpoints failed", failed, len(cfg.Checkpoints))
	}
	return nil
}

// evaluateCheckpoint runs specialize -> generate-all -> commit for one
// checkpoint. Any error discards the temporary table so the next run
// retries this checkpoint from scratch.
func evaluateCheckpoint(
	cfg *config.Config,
	preset bench.Preset,
	gen Generator,
	tok Tokenizer,
	ds bench.Dataset,
	base Handle,
	checkpoint string,
	tablePath string,
	sidecar *output.JSONLWriter,
) error {
	specialized, err := gen.Specialize(base, checkpoint)
	if err != nil {
		return fmt.Errorf("failed to specialize checkpoint %s: %w", checkpoint, err)
	}
	// The accelerator holds one specialized model at a time; release it
	// no matter how this checkpoint ends.
	defer func() {
		if err := gen.Release(specialized); err != nil {
			output.Logger.Error("Failed to release specialized model",
				"checkpoint", checkpoint, "error", err)
		}
	}()

	tw, err := output.NewTableWriter(tablePath)
	if err != nil {
		return err
	}
	defer tw.Discard()

	for _, ex := range ds {
		sequences, err := gen.Generate(GenerateRequest{
			Handle:             specialized,
			TokenIDs:           ex.TokenIDs,
			NumBeams:           preset.Beams(),
			NumReturnSequences: cfg.ReturnSequences,
			MaxNewTokens:       cfg.MaxNewTokens,
			PadTokenID:         tok.EOSTokenID(),
			UseCache:           true,
		})
		if err != nil {
			return fmt.Errorf("generation failed for example %s: %w", ex.ID, err)
		}

		// One result row per returned sequence, in engine return order.
		for _, seq := range sequences {
			decoded, err := tok.Decode(seq)
			if err != nil {
				return fmt.Errorf("failed to decode output for example %s: %w", ex.ID, err)
			}

			hypothesis, ok := prompt.Extract(decoded)
			if !ok {
				output.Logger.Warn("Got invalid response - no response marker",
					"id", ex.ID, "checkpoint", checkpoint)
			}

			row := bench.ResultRow{
				ID:         ex.ID,
				Source:     ex.Source,
				Reference:  ex.Reference,
				Hypothesis: hypothesis,
			}
			if err := tw.Write(row); err != nil {
				return fmt.Errorf("failed to write result row for example %s: %w", ex.ID, err)
			}
			if sidecar != nil {
				if err := sidecar.Write(output.Record{
					Checkpoint: checkpoint,
					Preset:     preset.String(),
					ResultRow:  row,
				}); err != nil {
					output.Logger.Error("Failed to write sidecar record", "id", ex.ID, "error", err)
				}
			}
		}
	}

	return tw.Commit()
}
