package embedding

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultDim is the hashing embedder's vector length when none is given.
const DefaultDim = 384

// Hashing is an offline embedder based on signed feature hashing of word
// unigrams and character trigrams. It needs no network and is fully
// deterministic, so the same text always yields the same vector.
type Hashing struct {
	dim int
}

// NewHashing returns a hashing embedder with dim buckets.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Name() string { return "hashing" }

// Dim returns the vector length.
func (h *Hashing) Dim() int { return h.dim }

// Embed hashes every feature of text into the vector. The low bits pick
// the bucket and the top bit picks the sign, which keeps collisions from
// only ever adding up.
func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	for _, token := range tokenize(text) {
		h.add(vec, "w:"+token, 1)
		padded := "#" + token + "#"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			h.add(vec, "c:"+string(runes[i:i+3]), 0.5)
		}
	}
	return vec, nil
}

func (h *Hashing) add(vec []float32, feature string, weight float32) {
	sum := xxhash.Sum64String(feature)
	bucket := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// tokenize lowercases text and splits it on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var _ Embedder = (*Hashing)(nil)
