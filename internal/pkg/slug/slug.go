// Package slug derives URL slugs for posts from a title and a numeric seed.
package slug

import (
	"errors"
	"regexp"
	"strings"
)

const (
	base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxTitleRunes  = 30
)

var (
	ErrInvalidBase62 = errors.New("invalid base62 string")

	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9\-]`)
)

// Generate returns "<normalized-title>-<base62(seed)>". The seed must be unique
// per post (the row id) for the slug to be unique.
func Generate(title string, seed uint64) string {
	base := normalizeTitle(title)
	encoded := EncodeBase62(seed)
	if base == "" {
		return encoded
	}
	return base + "-" + encoded
}

func normalizeTitle(title string) string {
	lowered := []rune(strings.ToLower(title))
	if len(lowered) > maxTitleRunes {
		lowered = lowered[:maxTitleRunes]
	}
	base := whitespaceRun.ReplaceAllString(string(lowered), "-")
	base = disallowed.ReplaceAllString(base, "")
	return strings.Trim(base, "-")
}

// EncodeBase62 encodes n most-significant digit first. Zero encodes as "0".
func EncodeBase62(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [11]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

func DecodeBase62(s string) (uint64, error) {
	if s == "" {
		return 0, ErrInvalidBase62
	}
	var n uint64
	for _, r := range s {
		idx := strings.IndexRune(base62Alphabet, r)
		if idx < 0 {
			return 0, ErrInvalidBase62
		}
		next := n*62 + uint64(idx)
		if next/62 != n {
			return 0, ErrInvalidBase62
		}
		n = next
	}
	return n, nil
}
