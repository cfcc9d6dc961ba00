/*
PURPOSE:
  Loads the benchmark CSV, renders each row into the instruction prompt,
  and tokenizes it through the tokenizer capability.

REQUIREMENTS:
  User-specified:
  - Required columns: id, sentence_eng_Latn, sentence_ukr_Cyrl. The
    names are a fixed contract with the benchmark file.
  - A missing column or malformed row fails the whole load; individual
    rows are not skippable.
  - No side effects beyond the in-memory dataset.

  Implementation-discovered:
  - Tokenization happens once at load time; the dataset is then shared
    read-only across every checkpoint evaluation.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/bench, internal/prompt, internal/output

ERROR HANDLING:
  - ErrDataFormat for missing columns and malformed rows (fatal).
  - File open errors are wrapped and fatal.

IMPLEMENTATION RULES:
  - Use encoding/csv; preserve file row order.

USAGE:
  ds, err := dataset.Load("data/flores_eng_ukr_major.csv", tok)

RELATED FILES:
  - internal/prompt/prompt.go
  - internal/tokenizer/tokenizer.go

MAINTENANCE:
  - Column constants change only together with the benchmark file.
*/

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/uatranslate/adapter-eval/internal/bench"
	"github.com/uatranslate/adapter-eval/internal/output"
	"github.com/uatranslate/adapter-eval/internal/prompt"
)

// Required benchmark columns. Fixed contract with the benchmark file.
const (
	ColID        = "id"
	ColSource    = "sentence_eng_Latn"
	ColReference = "sentence_ukr_Cyrl"
)

// ErrDataFormat marks a benchmark file that violates the column contract.
var ErrDataFormat = errors.New("invalid benchmark format")

// Tokenizer is the encoding side of the tokenizer capability the loader
// needs. Implementations enforce the maximum sequence length themselves.
type Tokenizer interface {
	Tokenize(text string) ([]int, error)
}

// Load reads the benchmark table at path, renders and tokenizes every
// row, and returns the ordered dataset. Any malformed row fails the
// whole load.
func Load(path string, tok Tokenizer) (bench.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open benchmark file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header of %s: %v", ErrDataFormat, path, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{ColID, ColSource, ColReference} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q in %s", ErrDataFormat, required, path)
		}
	}

	var ds bench.Dataset
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed row %d in %s: %v", ErrDataFormat, len(ds)+2, path, err)
		}

		source := record[cols[ColSource]]
		p := prompt.Render(source)
		ids, err := tok.Tokenize(p)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize row %s: %w", record[cols[ColID]], err)
		}

		ds = append(ds, bench.Example{
			ID:        record[cols[ColID]],
			Source:    source,
			Reference: record[cols[ColReference]],
			Prompt:    p,
			TokenIDs:  ids,
		})
	}

	output.Logger.Info("Loaded and tokenized benchmark", "path", path, "examples", len(ds))
	return ds, nil
}
