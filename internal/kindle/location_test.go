package kindle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input    string
		expected LocationRange
	}{
		{"631-32", LocationRange{Start: 631, End: 632}},
		{"1420-21", LocationRange{Start: 1420, End: 1421}},
		{"1411", LocationRange{Start: 1411, End: 1411}},
		{"784-785", LocationRange{Start: 784, End: 785}},
		{"64-64", LocationRange{Start: 64, End: 64}},
		{"1498-502", LocationRange{Start: 1498, End: 1502}},
		{"99-1003", LocationRange{Start: 99, End: 1003}},
		{" 2396 ", LocationRange{Start: 2396, End: 2396}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseLocation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loc)
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "12-", "-12", "631-2x", "1420-19"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLocation(input)
			assert.ErrorIs(t, err, ErrInvalidLocation)
		})
	}
}

func TestLocationRange_String(t *testing.T) {
	assert.Equal(t, "631-632", LocationRange{Start: 631, End: 632}.String())
	assert.Equal(t, "1411", LocationRange{Start: 1411, End: 1411}.String())
	assert.False(t, LocationRange{Start: 7, End: 7}.IsRange())
}
