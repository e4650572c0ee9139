// Package rerank reorders and trims retrieved candidates.
//
// Reranking improves accuracy but is never required for a correct
// answer, so rerankers do not return errors: on any failure they fall
// back to the input order and say so in the result notes.
package rerank

import (
	"context"

	"github.com/richinex/toolpilot/model"
)

// Notes recorded on results.
const (
	NotesIdentity     = "identity"
	NotesBM25         = "bm25"
	NotesLLM          = "llm_rerank"
	NotesNoCandidates = "no_candidates"

	// fallbackPrefix is followed by the failure cause.
	fallbackPrefix = "rerank_fallback:"
)

// Reranker orders candidates best first and keeps at most topN of them.
// topN <= 0 keeps all.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []model.Candidate, topN int) model.RerankResult
}

// Identity keeps the retrieval order.
type Identity struct{}

func (Identity) Rerank(_ context.Context, _ string, candidates []model.Candidate, topN int) model.RerankResult {
	return model.RerankResult{Candidates: truncate(candidates, topN), Notes: NotesIdentity}
}

// IsFallback reports whether notes describe a fallback to input order.
func IsFallback(notes string) bool {
	return len(notes) >= len(fallbackPrefix) && notes[:len(fallbackPrefix)] == fallbackPrefix
}

// truncate returns a copy of at most n candidates.
func truncate(candidates []model.Candidate, n int) []model.Candidate {
	if n <= 0 || n > len(candidates) {
		n = len(candidates)
	}
	out := make([]model.Candidate, n)
	copy(out, candidates)
	return out
}

var _ Reranker = Identity{}
