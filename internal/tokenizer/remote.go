package tokenizer

import (
	"fmt"

	"github.com/uatranslate/adapter-eval/internal/engine"
)

// Remote is the engine-backed tokenizer: the same subword vocabulary the
// generation engine decodes with, so prompt ids and output ids agree.
type Remote struct {
	client *engine.Client
	maxLen int
	eosID  int
}

// NewRemote builds a Remote and primes the end-of-sequence id with a
// single empty tokenize call, so EOSTokenID never needs to fail later.
func NewRemote(client *engine.Client, maxLen int) (*Remote, error) {
	_, eos, err := client.Tokenize("", maxLen, PaddingSide)
	if err != nil {
		return nil, fmt.Errorf("failed to probe engine tokenizer: %w", err)
	}
	return &Remote{client: client, maxLen: maxLen, eosID: eos}, nil
}

func (r *Remote) Tokenize(text string) ([]int, error) {
	ids, _, err := r.client.Tokenize(text, r.maxLen, PaddingSide)
	return ids, err
}

func (r *Remote) Decode(ids []int) (string, error) {
	return r.client.Decode(ids)
}

func (r *Remote) EOSTokenID() int {
	return r.eosID
}
