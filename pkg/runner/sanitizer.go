package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxUtteranceSize is 1KB. A spoken turn never gets close.
	DefaultMaxUtteranceSize = 1024
	// EnvMaxUtteranceSize is the environment variable to override the default.
	EnvMaxUtteranceSize = "PARLEY_MAX_UTTERANCE_SIZE"
)

var (
	ErrUtteranceTooLarge = errors.New("utterance exceeds maximum allowed size")
	ErrInvalidUTF8       = errors.New("utterance contains invalid UTF-8 sequences")
)

// SanitizeUtterance normalises a transcript before it reaches guards and prompts.
// Oversized or invalid input is rejected. Control characters are dropped and
// runs of whitespace collapse to a single space.
func SanitizeUtterance(input string) (string, error) {
	limit := maxUtteranceSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrUtteranceTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(input))
	space := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsControl(r):
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func maxUtteranceSize() int {
	if val := os.Getenv(EnvMaxUtteranceSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxUtteranceSize
}
