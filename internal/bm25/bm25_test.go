package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"book", "flight", "to", "nyc"}, Tokenize("Book_Flight -> a to NYC!"))
	assert.Empty(t, Tokenize("a b c"))
}

func TestScoresRankMatchingDocumentFirst(t *testing.T) {
	index := New([]Document{
		{{Text: "get_weather", Weight: 3}, {Text: "weather forecast for a city", Weight: 2}},
		{{Text: "book_flight", Weight: 3}, {Text: "book a flight between cities", Weight: 2}},
		{{Text: "set_alarm", Weight: 3}},
	})

	scores := index.Scores("please book a flight")
	assert.Len(t, scores, 3)
	assert.Greater(t, scores[1], scores[0])
	assert.Zero(t, scores[2])
}

func TestFieldWeightMatters(t *testing.T) {
	index := New([]Document{
		{{Text: "hotel", Weight: 1}, {Text: "filler words here", Weight: 1}},
		{{Text: "hotel", Weight: 3}, {Text: "filler words here", Weight: 1}},
	})
	scores := index.Scores("hotel")
	assert.Greater(t, scores[1], scores[0])
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, New(nil).Scores("anything"))

	index := New([]Document{{{Text: "x y", Weight: 1}}})
	assert.Equal(t, []float64{0}, index.Scores("hello"))
	assert.Equal(t, []float64{0}, index.Scores(""))
}
