/*
PURPOSE:
  HTTP client for the external Text Generation Engine.
  Covers tokenization, decoding, base-model loading, adapter
  specialization, handle release, and generation.

REQUIREMENTS:
  User-specified:
  - The engine owns weights, adapter merging, tokenizer internals, and
    accelerator placement; this client only speaks its JSON contract.
  - Generation is a synchronous call with no timeout: for large beam
    counts a single call can legitimately run for minutes, and the only
    cancellation is process termination.

  Implementation-discovered:
  - Needs http.Client; connection reuse matters across thousands of
    per-example generate calls.
  - Handles are opaque server-side references; Specialize derives a new
    handle and never mutates the base one.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (runner), internal/tokenizer,
    internal/cli
  - Uses: internal/output (logging)

ERROR HANDLING:
  - Non-2xx responses carry the body in the error for diagnosis.
  - Generate failures wrap ErrGeneration so the runner's failure boundary
    can classify them.

IMPLEMENTATION RULES:
  - Use net/http + encoding/json.
  - One post() helper; endpoint methods stay thin.

USAGE:
  c := engine.NewClient("http://localhost:9090")
  h, err := c.LoadBase("mistralai/Mistral-7B-v0.1")

RELATED FILES:
  - internal/engine/runner.go
  - internal/tokenizer/remote.go

MAINTENANCE:
  - Update endpoint paths/payloads together with the engine service.
*/

package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrGeneration marks a failed generation call. Fatal for the current
// checkpoint; the runner contains it and moves on.
var ErrGeneration = errors.New("generation failed")

// Handle is an opaque server-side model reference.
type Handle string

// Client talks to the Text Generation Engine over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a Client. The underlying http.Client carries no
// overall timeout: generate calls block for beam_count x max_new_tokens
// worth of work and must not be cut off mid-decode.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
	}
}

func (c *Client) post(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("engine request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("engine %s returned %s: %s", path, resp.Status, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("engine %s returned invalid JSON: %w", path, err)
	}
	return nil
}

// Tokenize encodes text under the engine's tokenizer. maxLength bounds
// the sequence; paddingSide is "left" for this benchmark (decoder-only
// model, framing supplied by the template, no automatic BOS/EOS). The
// second return value is the tokenizer's end-of-sequence token id.
func (c *Client) Tokenize(text string, maxLength int, paddingSide string) ([]int, int, error) {
	req := struct {
		Text        string `json:"text"`
		MaxLength   int    `json:"max_length"`
		PaddingSide string `json:"padding_side"`
		AddBOS      bool   `json:"add_bos_token"`
		AddEOS      bool   `json:"add_eos_token"`
	}{text, maxLength, paddingSide, false, false}

	var resp struct {
		TokenIDs   []int `json:"token_ids"`
		EOSTokenID int   `json:"eos_token_id"`
	}
	if err := c.post("/api/tokenize", req, &resp); err != nil {
		return nil, 0, err
	}
	return resp.TokenIDs, resp.EOSTokenID, nil
}

// Decode renders token ids back to text, special tokens included (the
// extractor strips the textual BOS/EOS markers itself).
func (c *Client) Decode(ids []int) (string, error) {
	req := struct {
		TokenIDs []int `json:"token_ids"`
	}{ids}

	var resp struct {
		Text string `json:"text"`
	}
	if err := c.post("/api/decode", req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// LoadBase loads the shared base model and returns its handle. The base
// stays off the accelerator; only specialized handles occupy it.
func (c *Client) LoadBase(model string) (Handle, error) {
	req := struct {
		Model string `json:"model"`
	}{model}

	var resp struct {
		Handle Handle `json:"handle"`
	}
	if err := c.post("/api/models/load", req, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// Specialize merges the named adapter checkpoint into a copy of the base
// model and places the copy on the accelerator at reduced precision. The
// base handle is never mutated; every checkpoint specializes from the
// same pristine base.
func (c *Client) Specialize(base Handle, checkpoint string) (Handle, error) {
	req := struct {
		BaseHandle Handle `json:"base_handle"`
		Checkpoint string `json:"checkpoint"`
	}{base, checkpoint}

	var resp struct {
		Handle Handle `json:"handle"`
	}
	if err := c.post("/api/models/specialize", req, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// Release frees a handle and the accelerator memory behind it. Must run
// before the next checkpoint is specialized; the accelerator holds at
// most one specialized model.
func (c *Client) Release(h Handle) error {
	req := struct {
		Handle Handle `json:"handle"`
	}{h}
	return c.post("/api/models/release", req, nil)
}

// GenerateRequest is one generation call for one example.
type GenerateRequest struct {
	Handle             Handle `json:"handle"`
	TokenIDs           []int  `json:"token_ids"`
	NumBeams           int    `json:"num_beams"`
	NumReturnSequences int    `json:"num_return_sequences"`
	MaxNewTokens       int    `json:"max_new_tokens"`
	PadTokenID         int    `json:"pad_token_id"`
	UseCache           bool   `json:"use_cache"`
}

// Generate produces one or more completion sequences for a tokenized
// prompt. Decoding is deterministic for a fixed (handle, prompt, beams)
// triple: beam count 1 is greedy, >1 is beam search without sampling.
func (c *Client) Generate(req GenerateRequest) ([][]int, error) {
	var resp struct {
		Sequences [][]int `json:"sequences"`
	}
	if err := c.post("/api/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return resp.Sequences, nil
}
