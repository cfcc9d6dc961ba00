package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// cl100k_base "<|endoftext|>" id.
const localEOSID = 100257

// Local is an offline BPE tokenizer (cl100k_base) for check-dataset
// runs. Its vocabulary differs from the engine's, so counts are
// estimates; it never feeds generation.
type Local struct {
	enc    *tiktoken.Tiktoken
	maxLen int
}

// NewLocal builds a Local with the given maximum sequence length.
func NewLocal(maxLen int) (*Local, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load local BPE encoding: %w", err)
	}
	return &Local{enc: enc, maxLen: maxLen}, nil
}

// Tokenize encodes text, truncated to the maximum sequence length.
func (l *Local) Tokenize(text string) ([]int, error) {
	ids := l.enc.EncodeOrdinary(text)
	if l.maxLen > 0 && len(ids) > l.maxLen {
		ids = ids[:l.maxLen]
	}
	return ids, nil
}

// Count returns the untruncated token count, for over-limit reporting.
func (l *Local) Count(text string) int {
	return len(l.enc.EncodeOrdinary(text))
}

func (l *Local) Decode(ids []int) (string, error) {
	return l.enc.Decode(ids), nil
}

func (l *Local) EOSTokenID() int {
	return localEOSID
}
