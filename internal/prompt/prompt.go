/*
PURPOSE:
  Renders the instruction prompt for a benchmark sentence and extracts the
  model's answer span from raw decoded output.

REQUIREMENTS:
  User-specified:
  - Wrap the source sentence as "[INST] {source} [/INST]".
  - Recover everything after the first "[/INST]" as the hypothesis,
    stripped of textual BOS/EOS markers and surrounding whitespace.

  Implementation-discovered:
  - The delimiter pair is the only signal the extractor has; template and
    extractor must consume the same constants, never duplicated literals.

ARCHITECTURE INTEGRATION:
  - Render called by: internal/dataset
  - Extract called by: internal/engine (runner)

ERROR HANDLING:
  - Extract reports a missing marker via its second return value; the
    caller decides how to degrade (empty hypothesis + warning).

IMPLEMENTATION RULES:
  - Split at the FIRST marker occurrence only.

USAGE:
  p := prompt.Render("Hello")            // "[INST] Hello [/INST]"
  hyp, ok := prompt.Extract(decoded)

RELATED FILES:
  - internal/dataset/loader.go
  - internal/engine/runner.go

MAINTENANCE:
  - Template changes must keep Render and Extract in lock-step.
*/

package prompt

import "strings"

// Instruction delimiters. ResponseMarker separates the instruction from
// the model's answer in the decoded output.
const (
	InstructionOpen = "[INST]"
	ResponseMarker  = "[/INST]"
)

// Textual begin/end-of-sequence markers some tokenizers decode literally.
const (
	bosText = "<s>"
	eosText = "</s>"
)

// Render wraps a source sentence in the fixed instruction template.
func Render(source string) string {
	return InstructionOpen + " " + source + " " + ResponseMarker
}

// Extract locates the first response marker in raw decoded text and
// returns the trimmed answer span after it. The second return value is
// false when the marker is absent (the model did not follow the template
// or generation was truncated); the hypothesis is then empty.
func Extract(raw string) (string, bool) {
	i := strings.Index(raw, ResponseMarker)
	if i < 0 {
		return "", false
	}
	out := raw[i+len(ResponseMarker):]
	out = strings.ReplaceAll(out, bosText, "")
	out = strings.ReplaceAll(out, eosText, "")
	return strings.TrimSpace(out), true
}
