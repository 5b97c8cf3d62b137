package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.0.0", "1.0.0"},
		{"1.0", "1.0.0"},
		{" 2.1.3 ", "2.1.3"},
		{"1.2.3.0", "1.2.3"},
		{"1.2.3.4", "1.2.3+r4"},
		{"1.0.0-beta.1", "1.0.0-beta.1"},
		{"4.7.2.0-preview", "4.7.2-preview"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v.String())
		})
	}

	_, err := ParseVersion("")
	assert.Error(t, err)
	_, err = ParseVersion("not-a-version")
	assert.Error(t, err)
}

func TestParseVersionRange(t *testing.T) {
	tests := []struct {
		input      string
		min        string
		max        string
		includeMin bool
		includeMax bool
		normalized string
	}{
		{"1.0.0", "1.0.0", "", true, false, "[1.0.0, )"},
		{"[1.0.0]", "1.0.0", "1.0.0", true, true, "[1.0.0]"},
		{"[1.0,2.0)", "1.0.0", "2.0.0", true, false, "[1.0.0, 2.0.0)"},
		{"(,2.0]", "", "2.0.0", false, true, "(, 2.0.0]"},
		{"[1.0.0, )", "1.0.0", "", true, false, "[1.0.0, )"},
		{"(1.0, 2.0)", "1.0.0", "2.0.0", false, false, "(1.0.0, 2.0.0)"},
		{"1.2.*", "1.2.0", "", true, false, "[1.2.0, )"},
		{"*", "0.0.0", "", true, false, "[0.0.0, )"},
		{"", "", "", false, false, "(, )"},
		{"(, )", "", "", false, false, "(, )"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ParseVersionRange(tt.input)
			require.NoError(t, err)

			if tt.min == "" {
				assert.Nil(t, r.Min)
			} else {
				require.NotNil(t, r.Min)
				assert.Equal(t, tt.min, r.Min.String())
			}
			if tt.max == "" {
				assert.Nil(t, r.Max)
			} else {
				require.NotNil(t, r.Max)
				assert.Equal(t, tt.max, r.Max.String())
			}
			assert.Equal(t, tt.includeMin, r.IncludeMin)
			assert.Equal(t, tt.includeMax, r.IncludeMax)
			assert.Equal(t, tt.normalized, r.Normalized())
		})
	}
}

func TestParseVersionRangeInvalid(t *testing.T) {
	for _, input := range []string{"[1.0.0", "(1.0.0)", "[1.0,2.0,3.0]", "[2.0,1.0]", "(1.0,1.0)", "[abc]", "1.*.3"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseVersionRange(input)
			assert.ErrorIs(t, err, ErrInvalidVersionRange)
		})
	}
}

func TestVersionRangeString(t *testing.T) {
	r, err := ParseVersionRange("1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", r.String(), "parsed ranges keep their declared text")

	exact := ExactVersionRange(MustParseVersion("2.0.0"))
	assert.Equal(t, "[2.0.0]", exact.String())
	assert.True(t, exact.IsExact())

	parsedExact, err := ParseVersionRange("[2.0.0]")
	require.NoError(t, err)
	assert.True(t, exact.Equal(parsedExact))
}

func TestVersionRangeSatisfies(t *testing.T) {
	r, err := ParseVersionRange("[1.0,2.0)")
	require.NoError(t, err)

	assert.True(t, r.Satisfies(MustParseVersion("1.0.0")))
	assert.True(t, r.Satisfies(MustParseVersion("1.9.9")))
	assert.False(t, r.Satisfies(MustParseVersion("2.0.0")))
	assert.False(t, r.Satisfies(MustParseVersion("0.9.0")))
	assert.False(t, r.Satisfies(nil))

	unbounded, err := ParseVersionRange("")
	require.NoError(t, err)
	assert.True(t, unbounded.IsUnbounded())
	assert.True(t, unbounded.Satisfies(MustParseVersion("99.0.0")))
}
