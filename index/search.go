package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/metrics"
	"github.com/richinex/toolpilot/model"
)

// Search returns up to topK candidates for query in descending score
// order, ties broken by insertion ordinal. topK <= 0 uses the configured
// retrieval count. With adaptive filtering on, candidates scoring below
// mean - c*stddev of the top-K batch are dropped.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]model.Candidate, error) {
	if !s.loaded {
		return nil, model.ErrNotLoaded
	}
	if topK <= 0 {
		topK = s.opts.RetrievalCount
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != s.dim {
		return nil, &model.DimensionMismatchError{Want: s.dim, Got: len(qvec)}
	}
	q := append([]float32(nil), qvec...)
	normalize(q)

	hits := s.topK(q, topK)
	retrieved := len(hits)
	if s.opts.ApplyStd {
		hits = adaptiveFilter(hits, s.opts.StdCoef)
	}

	candidates := make([]model.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = model.Candidate{ToolRecord: s.records[h.row], Score: h.score}
	}

	metrics.RecordSearch(len(candidates))
	zerolog.Ctx(ctx).Debug().
		Str("query", query).
		Int("top_k", topK).
		Int("retrieved", retrieved).
		Int("kept", len(candidates)).
		Msg("index search")
	return candidates, nil
}

type hit struct {
	row   int
	score float64
}

// topK scores every row by inner product with q and keeps the k best.
func (s *Store) topK(q []float32, k int) []hit {
	n := len(s.records)
	hits := make([]hit, n)
	for row := 0; row < n; row++ {
		vec := s.matrix[row*s.dim : (row+1)*s.dim]
		var dot float64
		for i, v := range vec {
			dot += float64(v) * float64(q[i])
		}
		hits[row] = hit{row: row, score: dot}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// adaptiveFilter keeps hits scoring at least mean - coef*stddev, using the
// population standard deviation of the batch. Order is preserved. A batch
// of equal scores is returned whole: its stddev is zero, and rounding in
// the mean must not drop any of them.
func adaptiveFilter(hits []hit, coef float64) []hit {
	if len(hits) < 2 || allEqual(hits) {
		return hits
	}
	cutoff := threshold(hits, coef)

	kept := hits[:0:0]
	for _, h := range hits {
		if h.score >= cutoff {
			kept = append(kept, h)
		}
	}
	return kept
}

func allEqual(hits []hit) bool {
	for _, h := range hits[1:] {
		if h.score != hits[0].score {
			return false
		}
	}
	return true
}

func threshold(hits []hit, coef float64) float64 {
	var sum float64
	for _, h := range hits {
		sum += h.score
	}
	mean := sum / float64(len(hits))

	var variance float64
	for _, h := range hits {
		d := h.score - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(hits)))
	return mean - coef*std
}
