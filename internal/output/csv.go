/*
PURPOSE:
  Writes a checkpoint's result table to a CSV file.
  The file's existence is the completion marker for resume logic, so rows
  accumulate in a temporary sibling and the final path only appears via an
  atomic rename after the last row.

REQUIREMENTS:
  User-specified:
  - Header "id,source,reference,hypothesis" exactly once, before any row.
  - One row per generated sequence, in generation order.
  - A crash mid-checkpoint must never leave a file at the final path.

  Implementation-discovered:
  - Flush after every write so a crash leaves an inspectable .tmp.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (runner)
  - Consumes: internal/bench.ResultRow

ERROR HANDLING:
  - Returns error on file creation, write, or rename failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Commit renames tmp -> final; Discard removes the tmp. Exactly one of
    the two runs per writer.

USAGE:
  w, err := output.NewTableWriter("eval/ckpt.greedy.csv")
  w.Write(row)
  w.Commit() // or w.Discard() on failure

RELATED FILES:
  - internal/bench/types.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update header and record mapping together when ResultRow changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/uatranslate/adapter-eval/internal/bench"
)

// TableHeader is the fixed column contract of every result table.
var TableHeader = []string{"id", "source", "reference", "hypothesis"}

// TableWriter accumulates result rows for one (checkpoint, preset) pair.
type TableWriter struct {
	file      *os.File
	writer    *csv.Writer
	path      string
	tmpPath   string
	committed bool
}

// NewTableWriter opens the temporary table at path+".tmp" and writes the
// header. A stale tmp from a previous crash is overwritten.
func NewTableWriter(path string) (*TableWriter, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create result table %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(TableHeader); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, err
	}

	return &TableWriter{
		file:    f,
		writer:  w,
		path:    path,
		tmpPath: tmp,
	}, nil
}

// Write appends a single result row and flushes it.
func (tw *TableWriter) Write(r bench.ResultRow) error {
	if err := tw.writer.Write([]string{r.ID, r.Source, r.Reference, r.Hypothesis}); err != nil {
		return err
	}
	tw.writer.Flush()
	return tw.writer.Error()
}

// Commit finalizes the table: flush, close, and atomically rename the
// temporary file to the final path. Only after Commit does the table
// satisfy the evaluator's already-exists check.
func (tw *TableWriter) Commit() error {
	tw.writer.Flush()
	if err := tw.writer.Error(); err != nil {
		return err
	}
	if err := tw.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tw.tmpPath, tw.path); err != nil {
		return fmt.Errorf("failed to finalize result table %s: %w", tw.path, err)
	}
	tw.committed = true
	return nil
}

// Discard closes and removes the temporary table. No-op after Commit.
func (tw *TableWriter) Discard() error {
	if tw.committed {
		return nil
	}
	tw.file.Close()
	return os.Remove(tw.tmpPath)
}
