/*
PURPOSE:
  Appends result rows to a JSON Lines sidecar file (NDJSON).
  Machine-readable audit trail across checkpoints; the CSV tables remain
  the sole completion markers for resume logic.

REQUIREMENTS:
  User-specified:
  - Optional (--jsonl); one JSON object per generated sequence, annotated
    with checkpoint and preset.

  Implementation-discovered:
  - JSON Lines is append-friendly across process restarts, so the sidecar
    is opened in append mode rather than truncated.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (runner)
  - Consumes: internal/bench.ResultRow

ERROR HANDLING:
  - Returns error on file open or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.

USAGE:
  w, err := output.NewJSONLWriter("eval/results.jsonl")
  w.Write(output.Record{Checkpoint: ckpt, Preset: "greedy", ResultRow: row})
  w.Close()

RELATED FILES:
  - internal/output/csv.go

MAINTENANCE:
  - Update Record when annotating rows with more run metadata.
*/

package output

import (
	"encoding/json"
	"os"

	"github.com/uatranslate/adapter-eval/internal/bench"
)

// Record is one sidecar line: a result row plus its provenance.
type Record struct {
	Checkpoint string `json:"checkpoint"`
	Preset     string `json:"preset"`
	bench.ResultRow
}

// JSONLWriter appends records to a JSON Lines file.
type JSONLWriter struct {
	file    *os.File
	encoder *json.Encoder
}

// NewJSONLWriter opens the sidecar for appending, creating it if absent.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &JSONLWriter{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Write writes a single record as a JSON line.
func (jw *JSONLWriter) Write(r Record) error {
	return jw.encoder.Encode(r)
}

// Close closes the underlying file.
func (jw *JSONLWriter) Close() error {
	return jw.file.Close()
}
