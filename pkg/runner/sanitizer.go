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
	// DefaultMaxInputSize bounds a single data entry. Barcodes and keyed entries are far smaller.
	DefaultMaxInputSize = 1024
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "POS_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrEmptyInput    = errors.New("input is empty")
)

// SanitizeInput prepares raw data-entry text for disambiguation.
// Oversized input is rejected rather than truncated. Control characters (including
// the CR/LF suffixes scanners append) are removed and surrounding whitespace trimmed.
func SanitizeInput(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := input
	if strings.IndexFunc(input, unicode.IsControl) >= 0 {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
		clean = b.String()
	}

	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "", ErrEmptyInput
	}
	return clean, nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
