package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeUtterance_SizeLimit(t *testing.T) {
	limit := DefaultMaxUtteranceSize

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeUtterance(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUtteranceTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeUtterance_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxUtteranceSize, "4")

	_, err := SanitizeUtterance("hello")
	assert.ErrorIs(t, err, ErrUtteranceTooLarge)
}

func TestSanitizeUtterance_Cleaning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "who is Ada Lovelace", "who is Ada Lovelace"},
		{"Surrounding Space", "  yes \n", "yes"},
		{"Inner Whitespace", "ten\t o'clock\n\nplease", "ten o'clock please"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeUtterance(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeUtterance_InvalidUTF8(t *testing.T) {
	_, err := SanitizeUtterance("bad \xff byte")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
