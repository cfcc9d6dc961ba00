package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreset(t *testing.T) {
	cases := []struct {
		name  string
		beams int
	}{
		{"greedy", 1},
		{"beam10", 10},
		{"beam15", 15},
		{"beam25", 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParsePreset(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.beams, p.Beams())
			assert.Equal(t, tc.name, p.String())
		})
	}
}

func TestParsePresetRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "beam5", "Greedy", "BEAM10", "beam 10", "sampling"} {
		_, err := ParsePreset(s)
		assert.Error(t, err, "preset %q should be rejected", s)
	}
}

func TestPresetNamesCoverEnumeration(t *testing.T) {
	names := PresetNames()
	require.Len(t, names, len(presetBeams))
	for _, n := range names {
		_, err := ParsePreset(n)
		assert.NoError(t, err)
	}
}
