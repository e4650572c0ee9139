// Package bm25 scores short documents against a query with Okapi BM25.
//
// Documents are built from weighted fields: a field with weight 3
// contributes its tokens three times, which raises both their term
// frequency and the document length. The corpus is whatever set of
// documents is being ranked, typically a handful of retrieved tools, so
// IDF is computed per call rather than over a global collection.
package bm25

import (
	"math"
	"regexp"
	"strings"
)

const (
	paramK1 = 1.2
	paramB  = 0.75

	// paramEpsilon floors IDF for terms present in more than half the
	// documents so common terms still count a little.
	paramEpsilon = 0.25
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Field is one weighted piece of document text.
type Field struct {
	Text   string
	Weight int
}

// Document is a set of weighted fields.
type Document []Field

// Index holds term statistics for a fixed document set.
type Index struct {
	termFrequencies []map[string]int
	lengths         []int
	avgLength       float64
	idf             map[string]float64
}

// New computes term statistics for documents.
func New(documents []Document) *Index {
	index := &Index{
		termFrequencies: make([]map[string]int, len(documents)),
		lengths:         make([]int, len(documents)),
		idf:             make(map[string]float64),
	}

	documentFrequency := make(map[string]int)
	var totalLength int

	for i, document := range documents {
		tokens := compositeTokens(document)
		index.lengths[i] = len(tokens)
		totalLength += len(tokens)

		tf := make(map[string]int)
		for _, token := range tokens {
			if tf[token] == 0 {
				documentFrequency[token]++
			}
			tf[token]++
		}
		index.termFrequencies[i] = tf
	}

	if len(documents) > 0 {
		index.avgLength = float64(totalLength) / float64(len(documents))
	}

	n := float64(len(documents))
	for term, df := range documentFrequency {
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		if idf < paramEpsilon {
			idf = paramEpsilon
		}
		index.idf[term] = idf
	}
	return index
}

// Scores returns the BM25 score of every document for query, in document
// order. Documents sharing no term with the query score 0.
func (index *Index) Scores(query string) []float64 {
	scores := make([]float64, len(index.lengths))
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || index.avgLength == 0 {
		return scores
	}

	for i, tf := range index.termFrequencies {
		length := float64(index.lengths[i])
		for _, token := range queryTokens {
			freq := float64(tf[token])
			if freq == 0 {
				continue
			}
			numerator := freq * (paramK1 + 1)
			denominator := freq + paramK1*(1-paramB+paramB*length/index.avgLength)
			scores[i] += index.idf[token] * numerator / denominator
		}
	}
	return scores
}

func compositeTokens(document Document) []string {
	var tokens []string
	for _, field := range document {
		if field.Weight <= 0 {
			continue
		}
		fieldTokens := Tokenize(field.Text)
		for i := 0; i < field.Weight; i++ {
			tokens = append(tokens, fieldTokens...)
		}
	}
	return tokens
}

// Tokenize splits text into lowercase alphanumeric tokens, discarding
// tokens shorter than 2 characters.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}
