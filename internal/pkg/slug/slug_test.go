package slug_test

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/pkg/slug"
)

func TestEncodeBase62(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{9, "9"},
		{10, "a"},
		{35, "z"},
		{36, "A"},
		{61, "Z"},
		{62, "10"},
		{125, "21"},
		{3843, "ZZ"},
		{3844, "100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slug.EncodeBase62(tt.in), "EncodeBase62(%d)", tt.in)
	}
}

func TestBase62RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 61, 62, 63, 10000, 1 << 32, math.MaxUint32, math.MaxUint64 - 1, math.MaxUint64}
	for _, v := range values {
		encoded := slug.EncodeBase62(v)
		decoded, err := slug.DecodeBase62(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
		assert.Equal(t, encoded, slug.EncodeBase62(decoded))
	}
}

func TestDecodeBase62_Invalid(t *testing.T) {
	for _, in := range []string{"", "ab-c", "héllo", "!"} {
		_, err := slug.DecodeBase62(in)
		assert.ErrorIs(t, err, slug.ErrInvalidBase62, "input %q", in)
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := slug.DecodeBase62("ZZZZZZZZZZZZ")
		assert.ErrorIs(t, err, slug.ErrInvalidBase62)
	})
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		title string
		seed  uint64
		want  string
	}{
		{"punctuation and trailing spaces", "Hello, World!  ", 1, "hello-world-1"},
		{"whitespace runs collapse", "Go   is\tfun", 62, "go-is-fun-10"},
		{"truncated to thirty characters", "The Quick Brown Fox Jumps Over The Lazy Dog", 125, "the-quick-brown-fox-jumps-over-21"},
		{"non ascii dropped", "Café Olé", 7, "caf-ol-7"},
		{"existing hyphens kept", "step-by-step guide", 10, "step-by-step-guide-a"},
		{"empty title", "   !!!  ", 3, "3"},
		{"zero seed", "Zero", 0, "zero-0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.Generate(tt.title, tt.seed))
		})
	}
}

func TestGenerate_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^hello-world-[0-9a-zA-Z]+$`)
	for _, seed := range []uint64{1, 61, 62, 999999} {
		assert.Regexp(t, pattern, slug.Generate("Hello, World!  ", seed))
	}
}

func TestGenerate_DistinctSeedsDistinctSlugs(t *testing.T) {
	seen := map[string]struct{}{}
	for seed := uint64(1); seed <= 5000; seed++ {
		s := slug.Generate("Same Title", seed)
		_, dup := seen[s]
		require.False(t, dup, "duplicate slug %q", s)
		seen[s] = struct{}{}
	}
}
