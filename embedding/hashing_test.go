package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashingDeterministic(t *testing.T) {
	h := NewHashing(0)
	assert.Equal(t, DefaultDim, h.Dim())

	a, err := h.Embed(context.Background(), "Book a flight to New York")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "Book a flight to New York")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDim)
}

func TestHashingCaseAndPunctuationInsensitive(t *testing.T) {
	h := NewHashing(128)
	a, _ := h.Embed(context.Background(), "book_flight: origin, destination")
	b, _ := h.Embed(context.Background(), "BOOK FLIGHT origin destination")
	assert.Equal(t, a, b)
}

func TestHashingSimilarity(t *testing.T) {
	h := NewHashing(DefaultDim)
	ctx := context.Background()
	query, _ := h.Embed(ctx, "book a flight from los angeles to new york")
	flight, _ := h.Embed(ctx, "book_flight\nBook a flight between two cities\nparams: origin destination date passengers")
	weather, _ := h.Embed(ctx, "get_weather\nReturn the current weather for a location\nparams: location unit")

	assert.Greater(t, cosine(query, flight), cosine(query, weather))
}

func TestHashingEmptyText(t *testing.T) {
	vec, err := NewHashing(16).Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestNewSelectsEmbedder(t *testing.T) {
	e, err := New(Config{Kind: "hashing", Dim: 32})
	require.NoError(t, err)
	assert.Equal(t, "hashing", e.Name())

	_, err = New(Config{Kind: "openai"})
	assert.Error(t, err)

	_, err = New(Config{Kind: "word2vec"})
	assert.Error(t, err)

	e, err = New(Config{Kind: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small", e.Name())
}
