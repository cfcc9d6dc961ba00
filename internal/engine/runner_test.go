package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uatranslate/adapter-eval/internal/bench"
	"github.com/uatranslate/adapter-eval/internal/config"
	"github.com/uatranslate/adapter-eval/internal/output"
)

// fakeTok decodes a sequence by looking up its first token id in texts.
type fakeTok struct {
	texts []string
}

func (f *fakeTok) Decode(ids []int) (string, error) { return f.texts[ids[0]], nil }
func (f *fakeTok) EOSTokenID() int                  { return 2 }

// fakeGenerator records every engine call in order and yields one
// sequence per generate call, walking the token-id space so fakeTok can
// map each sequence to a distinct decoded text.
type fakeGenerator struct {
	calls       []string
	lastReq     GenerateRequest
	failHandles map[Handle]bool
	perCall     int // sequences returned per generate call
	next        int
}

func (g *fakeGenerator) LoadBase(model string) (Handle, error) {
	g.calls = append(g.calls, "load:"+model)
	return "base", nil
}

func (g *fakeGenerator) Specialize(base Handle, checkpoint string) (Handle, error) {
	if base != "base" {
		return "", fmt.Errorf("specialize called with non-base handle %q", base)
	}
	g.calls = append(g.calls, "specialize:"+checkpoint)
	return Handle("spec:" + checkpoint), nil
}

func (g *fakeGenerator) Release(h Handle) error {
	g.calls = append(g.calls, "release:"+string(h))
	return nil
}

func (g *fakeGenerator) Generate(req GenerateRequest) ([][]int, error) {
	g.calls = append(g.calls, "generate:"+string(req.Handle))
	g.lastReq = req
	if g.failHandles[req.Handle] {
		return nil, fmt.Errorf("%w: engine exploded", ErrGeneration)
	}
	n := g.perCall
	if n == 0 {
		n = 1
	}
	out := make([][]int, n)
	for i := range out {
		out[i] = []int{g.next}
		g.next++
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func testDataset() bench.Dataset {
	return bench.Dataset{
		{ID: "1", Source: "Hello", Reference: "Привіт", Prompt: "[INST] Hello [/INST]", TokenIDs: []int{10, 11}},
		{ID: "2", Source: "Good night", Reference: "Надобраніч", Prompt: "[INST] Good night [/INST]", TokenIDs: []int{12, 13}},
	}
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "adapters-ckpt1", Slug("adapters/ckpt1"))
	assert.Equal(t, "ckpt1", Slug("ckpt1"))
	assert.Equal(t, "a-b-c", Slug("a/b/c"))
}

func TestTablePath(t *testing.T) {
	got := TablePath("eval", "adapters/ckpt1", bench.PresetBeam10)
	assert.Equal(t, filepath.Join("eval", "adapters-ckpt1.beam10.csv"), got)
}

func TestRunWritesResultTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"adapters/ckpt1"}

	gen := &fakeGenerator{}
	tok := &fakeTok{texts: []string{
		"<s>[INST] Hello [/INST]Привіт</s>",
		"<s>[INST] Good night [/INST] Надобраніч </s>",
	}}

	require.NoError(t, Run(cfg, bench.PresetGreedy, gen, tok, testDataset()))

	records := readTable(t, filepath.Join(cfg.OutputDir, "adapters-ckpt1.greedy.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, output.TableHeader, records[0])
	assert.Equal(t, []string{"1", "Hello", "Привіт", "Привіт"}, records[1])
	assert.Equal(t, []string{"2", "Good night", "Надобраніч", "Надобраніч"}, records[2])

	// No leftover temporary table.
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "adapters-ckpt1.greedy.csv.tmp"))
	assert.True(t, os.IsNotExist(err))

	// Generation parameters follow the preset and the fixed budget.
	assert.Equal(t, 1, gen.lastReq.NumBeams)
	assert.Equal(t, 256, gen.lastReq.MaxNewTokens)
	assert.Equal(t, 2, gen.lastReq.PadTokenID)
	assert.True(t, gen.lastReq.UseCache)
	assert.Equal(t, []int{12, 13}, gen.lastReq.TokenIDs)
}

func TestRunSkipsExistingTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"adapters/ckpt1"}

	existing := filepath.Join(cfg.OutputDir, "adapters-ckpt1.beam10.csv")
	sentinel := []byte("id,source,reference,hypothesis\nold,row,kept,intact\n")
	require.NoError(t, os.WriteFile(existing, sentinel, 0644))

	gen := &fakeGenerator{}
	require.NoError(t, Run(cfg, bench.PresetBeam10, gen, &fakeTok{}, testDataset()))

	// No specialization or generation happened; only the base load.
	assert.Equal(t, []string{"load:" + cfg.BaseModel}, gen.calls)

	// The existing table is byte-identical.
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, sentinel, data)
}

func TestRunBeamPresetParameters(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"ckpt"}

	gen := &fakeGenerator{}
	tok := &fakeTok{texts: []string{"[INST] a [/INST]x", "[INST] b [/INST]y"}}
	require.NoError(t, Run(cfg, bench.PresetBeam25, gen, tok, testDataset()))

	assert.Equal(t, 25, gen.lastReq.NumBeams)
	assert.Equal(t, 1, gen.lastReq.NumReturnSequences)
}

func TestRunMultipleReturnSequences(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"ckpt"}
	cfg.ReturnSequences = 2

	gen := &fakeGenerator{perCall: 2}
	tok := &fakeTok{texts: []string{
		"[INST] Hello [/INST]Привіт",
		"[INST] Hello [/INST]Вітаю",
		"[INST] Good night [/INST]Надобраніч",
		"[INST] Good night [/INST]Добраніч",
	}}

	require.NoError(t, Run(cfg, bench.PresetBeam10, gen, tok, testDataset()))

	records := readTable(t, filepath.Join(cfg.OutputDir, "ckpt.beam10.csv"))
	require.Len(t, records, 5)
	// One row per returned sequence, engine return order, example fields
	// repeated per candidate.
	assert.Equal(t, []string{"1", "Hello", "Привіт", "Привіт"}, records[1])
	assert.Equal(t, []string{"1", "Hello", "Привіт", "Вітаю"}, records[2])
	assert.Equal(t, []string{"2", "Good night", "Надобраніч", "Надобраніч"}, records[3])
	assert.Equal(t, []string{"2", "Good night", "Надобраніч", "Добраніч"}, records[4])
}

func TestRunInvalidResponseDegradesToEmptyHypothesis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"ckpt"}

	var logBuf bytes.Buffer
	old := output.Logger
	output.SetLogger(slog.New(slog.NewTextHandler(&logBuf, nil)))
	defer output.SetLogger(old)

	gen := &fakeGenerator{}
	// Second example's output never reaches the response marker.
	tok := &fakeTok{texts: []string{
		"[INST] Hello [/INST]Привіт",
		"[INST] Good night ...truncated",
	}}

	require.NoError(t, Run(cfg, bench.PresetGreedy, gen, tok, testDataset()))

	records := readTable(t, filepath.Join(cfg.OutputDir, "ckpt.greedy.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2", "Good night", "Надобраніч", ""}, records[2])

	assert.Contains(t, logBuf.String(), "id=2")
	assert.Contains(t, logBuf.String(), "invalid response")
}

func TestRunFailedCheckpointDoesNotStopTheRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"bad", "good"}

	gen := &fakeGenerator{failHandles: map[Handle]bool{"spec:bad": true}}
	tok := &fakeTok{texts: []string{"[INST] a [/INST]x", "[INST] b [/INST]y"}}

	err := Run(cfg, bench.PresetGreedy, gen, tok, testDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 checkpoints failed")

	// The failed checkpoint left neither a final table nor a temp file,
	// so the next run retries it from scratch.
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, "bad.greedy.csv"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(cfg.OutputDir, "bad.greedy.csv.tmp"))
	assert.True(t, os.IsNotExist(statErr))

	// The later checkpoint still completed.
	records := readTable(t, filepath.Join(cfg.OutputDir, "good.greedy.csv"))
	assert.Len(t, records, 3)
}

func TestRunReleasesBeforeNextSpecialize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"a", "b"}

	gen := &fakeGenerator{}
	tok := &fakeTok{texts: []string{
		"[INST] 1 [/INST]x", "[INST] 2 [/INST]y",
		"[INST] 3 [/INST]z", "[INST] 4 [/INST]w",
	}}
	require.NoError(t, Run(cfg, bench.PresetGreedy, gen, tok, testDataset()))

	var order []string
	for _, c := range gen.calls {
		switch c {
		case "specialize:a", "release:spec:a", "specialize:b", "release:spec:b":
			order = append(order, c)
		}
	}
	assert.Equal(t, []string{"specialize:a", "release:spec:a", "specialize:b", "release:spec:b"}, order)
}

func TestRunWritesSidecarWhenEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"ckpt"}
	cfg.JSONL = true

	gen := &fakeGenerator{}
	tok := &fakeTok{texts: []string{"[INST] a [/INST]x", "[INST] b [/INST]y"}}
	require.NoError(t, Run(cfg, bench.PresetGreedy, gen, tok, testDataset()))

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "results.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"checkpoint":"ckpt"`)
	assert.Contains(t, string(data), `"preset":"greedy"`)
	assert.Contains(t, string(data), `"hypothesis":"x"`)
}

func TestRunIdempotentRerun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoints = []string{"ckpt"}

	tok := &fakeTok{texts: []string{"[INST] a [/INST]x", "[INST] b [/INST]y"}}
	require.NoError(t, Run(cfg, bench.PresetGreedy, &fakeGenerator{}, tok, testDataset()))

	path := filepath.Join(cfg.OutputDir, "ckpt.greedy.csv")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Second run performs zero generation calls and leaves the table
	// byte-identical.
	gen2 := &fakeGenerator{}
	require.NoError(t, Run(cfg, bench.PresetGreedy, gen2, tok, testDataset()))
	assert.Equal(t, []string{"load:" + cfg.BaseModel}, gen2.calls)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
