// Package shortcode produces and checks short codes.
package shortcode

import (
	"errors"
	"fmt"
	"math"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultAlphabet is the case-sensitive base62 set used for generated codes.
	DefaultAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// DefaultLength is the length of generated codes.
	DefaultLength = 5
	// DefaultCustomMaxLength bounds the length of caller-supplied codes.
	DefaultCustomMaxLength = 32

	maxAlphabetSize = 255
)

var (
	// ErrInvalidAlphabet is returned when the alphabet size is out of range or it holds non-ASCII or repeated characters.
	ErrInvalidAlphabet = errors.New("invalid alphabet")
	// ErrInvalidLength is returned when the requested code length is not positive.
	ErrInvalidLength = errors.New("invalid length")
)

// Generator produces random codes of a fixed length from a fixed alphabet.
// It is safe for concurrent use: randomness comes from crypto/rand.
type Generator struct {
	alphabet string
	length   int
}

// NewGenerator checks the alphabet and length once so that Generate cannot fail.
func NewGenerator(alphabet string, length int) (*Generator, error) {
	const op = "shortcode.NewGenerator"

	if len(alphabet) < 2 || len(alphabet) > maxAlphabetSize {
		return nil, fmt.Errorf("%s: %w: size must be between 2 and %d", op, ErrInvalidAlphabet, maxAlphabetSize)
	}

	seen := make(map[rune]struct{}, len(alphabet))
	for _, c := range alphabet {
		if c > 0x7f {
			return nil, fmt.Errorf("%s: %w: non-ascii character %q", op, ErrInvalidAlphabet, c)
		}
		if _, ok := seen[c]; ok {
			return nil, fmt.Errorf("%s: %w: duplicate character %q", op, ErrInvalidAlphabet, c)
		}
		seen[c] = struct{}{}
	}

	if length < 1 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidLength, length)
	}

	return &Generator{
		alphabet: alphabet,
		length:   length,
	}, nil
}

// Generate returns a new code drawn uniformly from the alphabet.
func (g *Generator) Generate() string {
	return gonanoid.MustGenerate(g.alphabet, g.length)
}

// Length returns the length of generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Space returns the number of distinct codes the generator can produce.
func (g *Generator) Space() float64 {
	return math.Pow(float64(len(g.alphabet)), float64(g.length))
}

// ValidateCustom checks a caller-supplied code: 1..maxLen characters
// from [A-Za-z0-9_-].
func ValidateCustom(code string, maxLen int) error {
	if code == "" {
		return errors.New("code is empty")
	}
	if len(code) > maxLen {
		return fmt.Errorf("code is longer than %d characters", maxLen)
	}

	for i := 0; i < len(code); i++ {
		if !isCustomChar(code[i]) {
			return fmt.Errorf("character %q at position %d is not allowed", code[i], i)
		}
	}

	return nil
}

func isCustomChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}
