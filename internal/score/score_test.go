package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		sets      []Set
		expectErr bool
	}{
		{name: "blank", input: "  ", sets: []Set{}},
		{name: "straight sets", input: "6-3 6-2", sets: []Set{{6, 3}, {6, 2}}},
		{name: "tiebreak and commas", input: "6-3, 4-6, 7-6(5)", sets: []Set{{6, 3}, {4, 6}, {7, 6}}},
		{name: "garbage", input: "won easily", expectErr: true},
		{name: "drawn set", input: "6-6", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := Parse(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.sets, line.Sets)
		})
	}
}

func TestLineTotals(t *testing.T) {
	line, err := Parse("6-3 4-6 7-6(5)")
	require.NoError(t, err)

	s1, s2 := line.SetsWon()
	assert.Equal(t, 2, s1)
	assert.Equal(t, 1, s2)

	g1, g2 := line.Games()
	assert.Equal(t, 17, g1)
	assert.Equal(t, 15, g2)
}
