// Package hashgen mints widget identifiers and the embed artifacts derived
// from them.
package hashgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
	"unicode/utf16"
)

// suffixCharset is the base-36 alphabet used for random suffixes.
const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// SuffixLength is the number of random characters appended to every hash.
const SuffixLength = 6

// Generator mints widget hashes. The clock and the suffix source are
// injectable so tests can pin both; the zero-value-style constructor wires
// the wall clock and a crypto/rand suffix.
type Generator struct {
	now    func() time.Time
	suffix func() (string, error)
}

// New returns a Generator using the wall clock and a random suffix source.
func New() *Generator {
	return &Generator{
		now:    time.Now,
		suffix: RandomSuffix,
	}
}

// NewWithSources returns a Generator with explicit clock and suffix
// sources. Used by tests to make generation deterministic.
func NewWithSources(now func() time.Time, suffix func() (string, error)) *Generator {
	return &Generator{now: now, suffix: suffix}
}

// RandomSuffix draws SuffixLength characters from the base-36 charset using
// crypto/rand.
func RandomSuffix() (string, error) {
	code := make([]byte, SuffixLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = suffixCharset[num.Int64()]
	}
	return string(code), nil
}

// WidgetHash mints an identifier for a new widget owned by scopeID and
// selling tokenID. The result matches ^dob-[0-9a-z]+-[0-9a-z]{6}$ and is
// deterministic given the same inputs, instant and suffix. Uniqueness is
// probabilistic (time plus randomness); callers that need a guarantee
// check against storage and retry.
//
// Empty tokenID or scopeID still produce a well-formed hash; validating
// non-emptiness is the API layer's job.
func (g *Generator) WidgetHash(tokenID, scopeID string) (string, error) {
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	t := g.now().UnixMilli()
	base := fmt.Sprintf("%s-%s-%d-%s", tokenID, scopeID, t, suffix)
	return "dob-" + strconv.FormatInt(abs32(fold32(base)), 36) + "-" + suffix, nil
}

// fold32 runs the polynomial rolling hash over the UTF-16 code units of s,
// wrapping to 32-bit signed range at every step: h = (h << 5) - h + c.
// Code units, not runes: characters outside the BMP contribute their
// surrogate pair.
func fold32(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// abs32 widens before negating so the minimum 32-bit value does not
// overflow.
func abs32(v int32) int64 {
	n := int64(v)
	if n < 0 {
		return -n
	}
	return n
}
