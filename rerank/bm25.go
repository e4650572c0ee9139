package rerank

import (
	"context"
	"sort"

	"github.com/richinex/toolpilot/internal/bm25"
	"github.com/richinex/toolpilot/model"
)

// BM25 reorders candidates by lexical relevance of their name, API name,
// description and parameters to the query. Ties keep retrieval order.
type BM25 struct{}

// Field weights: names are the strongest signal.
const (
	weightName      = 3
	weightDesc      = 2
	weightParamName = 2
	weightParamDesc = 1
)

func (BM25) Rerank(_ context.Context, query string, candidates []model.Candidate, topN int) model.RerankResult {
	if len(candidates) == 0 {
		return model.RerankResult{Candidates: []model.Candidate{}, Notes: NotesNoCandidates}
	}

	documents := make([]bm25.Document, len(candidates))
	for i, c := range candidates {
		documents[i] = document(c)
	}
	scores := bm25.New(documents).Scores(query)

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranked := make([]model.Candidate, len(candidates))
	for i, idx := range order {
		ranked[i] = candidates[idx]
	}
	return model.RerankResult{Candidates: truncate(ranked, topN), Notes: NotesBM25}
}

func document(c model.Candidate) bm25.Document {
	doc := bm25.Document{
		{Text: c.Name, Weight: weightName},
		{Text: c.APIName, Weight: weightName},
		{Text: c.Description, Weight: weightDesc},
	}
	for _, params := range [][]model.Param{c.Parameters.Required, c.Parameters.Optional} {
		for _, p := range params {
			doc = append(doc,
				bm25.Field{Text: p.Name, Weight: weightParamName},
				bm25.Field{Text: p.Description, Weight: weightParamDesc},
			)
		}
	}
	return doc
}

var _ Reranker = BM25{}
