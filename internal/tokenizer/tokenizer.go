/*
PURPOSE:
  Tokenizer capability consumed by the loader and the runner.
  Two backends: Remote delegates to the engine's own tokenizer (the one
  generation actually uses), Local is an offline BPE approximation for
  dataset checks without a live engine.

ARCHITECTURE INTEGRATION:
  - Implementations consumed by: internal/dataset, internal/engine,
    internal/cli
  - Remote uses: internal/engine (client)

IMPLEMENTATION RULES:
  - Max sequence length is enforced here, not by callers.
  - Only Remote may feed generation; Local is diagnostics-only.

RELATED FILES:
  - internal/tokenizer/remote.go
  - internal/tokenizer/local.go
*/

package tokenizer

// PaddingSide for this benchmark: decoder-only model, prompts padded on
// the left.
const PaddingSide = "left"

// Tokenizer is the full capability contract: encode, decode, and the
// end-of-sequence id used as the deterministic pad token.
type Tokenizer interface {
	Tokenize(text string) ([]int, error)
	Decode(ids []int) (string, error)
	EOSTokenID() int
}
