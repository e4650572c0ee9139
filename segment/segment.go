// Package segment splits a multi-intent request into ordered sub-queries.
package segment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	jsonutil "github.com/richinex/toolpilot/internal/json"
	"github.com/richinex/toolpilot/llm"
	"github.com/richinex/toolpilot/model"
)

// DefaultMaxSegments bounds the number of segments returned.
const DefaultMaxSegments = 3

// DefaultBoundaries are the patterns that separate sub-intents. They are
// matched case-insensitively and tried left to right, so ", then " wins
// over " then " at the same position.
var DefaultBoundaries = []string{
	`\band\b`,
	`;`,
	`\.`,
	`, then `,
	` then `,
	`\bafter\b`,
	`\bnext\b`,
	`\bfinally\b`,
	`&`,
	`\bsubsequently\b`,
}

// Segmenter splits a query into at most a configured number of
// non-empty segments. Implementations hold no per-call state.
type Segmenter interface {
	Segment(ctx context.Context, query string) ([]string, error)
}

// Deterministic splits on boundary patterns.
type Deterministic struct {
	pattern *regexp.Regexp
	max     int
}

// NewDeterministic compiles boundaries (DefaultBoundaries when empty).
// maxSegments <= 0 selects DefaultMaxSegments.
func NewDeterministic(maxSegments int, boundaries ...string) (*Deterministic, error) {
	if len(boundaries) == 0 {
		boundaries = DefaultBoundaries
	}
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	pattern, err := regexp.Compile("(?i)" + strings.Join(boundaries, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile segment boundaries: %w", err)
	}
	return &Deterministic{pattern: pattern, max: maxSegments}, nil
}

// Segment never fails.
func (d *Deterministic) Segment(_ context.Context, query string) ([]string, error) {
	var segments []string
	for _, part := range d.pattern.Split(query, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return limit(segments, d.max), nil
}

// LLM asks a chat model to split the query.
type LLM struct {
	provider llm.Provider
	max      int
}

// NewLLM creates a model-backed segmenter. A nil provider is accepted;
// Segment then fails with model.ErrConfiguration.
func NewLLM(provider llm.Provider, maxSegments int) *LLM {
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	return &LLM{provider: provider, max: maxSegments}
}

type segmentsReply struct {
	Segments []string `json:"segments"`
}

func (s *LLM) Segment(ctx context.Context, query string) ([]string, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("segmenter: %w", model.ErrConfiguration)
	}

	raw, err := llm.Complete(ctx, s.provider, buildPrompt(query), nil)
	if err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}

	reply, err := jsonutil.Decode[segmentsReply](raw)
	if err != nil {
		return nil, &model.ResponseFormatError{Stage: "segment", Raw: raw, Err: err}
	}

	var segments []string
	for _, seg := range reply.Segments {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	zerolog.Ctx(ctx).Debug().Int("segments", len(segments)).Msg("llm segmentation")
	return limit(segments, s.max), nil
}

func buildPrompt(query string) string {
	return "Split the user request into minimal sub-tasks (2-3 segments max). " +
		`Return JSON: {"segments": ["segment1", "segment2", ...]}.` + "\n" +
		"User request:\n" + query
}

func limit(segments []string, n int) []string {
	if segments == nil {
		return []string{}
	}
	if len(segments) > n {
		return segments[:n]
	}
	return segments
}

var (
	_ Segmenter = (*Deterministic)(nil)
	_ Segmenter = (*LLM)(nil)
)
