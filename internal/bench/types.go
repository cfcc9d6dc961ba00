/*
PURPOSE:
  Defines the core data structures used throughout adapter-eval.
  These models represent benchmark examples, decoding presets, and
  per-checkpoint result rows.

REQUIREMENTS:
  User-specified:
  - One example per benchmark row: id, source sentence, reference
    translation, rendered prompt, token ids.
  - One result row per generated sequence: id, source, reference,
    hypothesis.
  - Closed set of decoding presets mapping to beam counts.

  Implementation-discovered:
  - Need JSON tags for the JSON-lines sidecar.

ARCHITECTURE INTEGRATION:
  - Used by: internal/dataset, internal/engine, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - ParsePreset rejects anything outside the closed enumeration.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Examples are immutable after load; never write to them downstream.

USAGE:
  p, err := bench.ParsePreset("beam10")
  p.Beams() // 10

RELATED FILES:
  - internal/dataset/loader.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new presets or result fields.
*/

package bench

import (
	"fmt"
	"strings"
)

// Example is one benchmark row, rendered and tokenized at load time.
type Example struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Prompt    string `json:"prompt"`
	TokenIDs  []int  `json:"-"`
}

// Dataset is the ordered, read-only benchmark. Insertion order is file
// row order and fixes the order of result rows.
type Dataset []Example

// ResultRow is one line of a checkpoint's result table.
type ResultRow struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Reference  string `json:"reference"`
	Hypothesis string `json:"hypothesis"`
}

// Preset names a decoding configuration. The set is closed: parse with
// ParsePreset, never construct from arbitrary strings.
type Preset string

const (
	PresetGreedy Preset = "greedy"
	PresetBeam10 Preset = "beam10"
	PresetBeam15 Preset = "beam15"
	PresetBeam25 Preset = "beam25"
)

var presetBeams = map[Preset]int{
	PresetGreedy: 1,
	PresetBeam10: 10,
	PresetBeam15: 15,
	PresetBeam25: 25,
}

// ParsePreset validates a preset name. Anything outside the closed set is
// an error, surfaced before the dataset is ever touched.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := presetBeams[p]; !ok {
		return "", fmt.Errorf("unknown preset %q (valid: %s)", s, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// Beams returns the beam count for the preset. 1 means greedy decoding.
func (p Preset) Beams() int {
	return presetBeams[p]
}

func (p Preset) String() string {
	return string(p)
}

// PresetNames lists the valid preset names for usage/help text.
func PresetNames() []string {
	return []string{
		string(PresetGreedy),
		string(PresetBeam25),
		string(PresetBeam15),
		string(PresetBeam10),
	}
}
