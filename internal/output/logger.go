/*
PURPOSE:
  Provides a structured logger for adapter-eval.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - Structured lines for load progress, per-checkpoint skip/start notices,
    and per-example invalid-response warnings.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")

MAINTENANCE:
  - Configurable log levels?
*/

package output

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// SetLogger allows overriding the default logger (e.g. for testing or to
// attach run-scoped attributes).
func SetLogger(l *slog.Logger) {
	Logger = l
}
