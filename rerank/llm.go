package rerank

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	jsonutil "github.com/richinex/toolpilot/internal/json"
	"github.com/richinex/toolpilot/internal/prompt"
	"github.com/richinex/toolpilot/llm"
	"github.com/richinex/toolpilot/model"
)

// LLM asks a chat model to order the candidates.
type LLM struct {
	provider llm.Provider
}

// NewLLM creates a model-backed reranker. A nil provider is accepted and
// makes every call fall back to input order.
func NewLLM(provider llm.Provider) *LLM {
	return &LLM{provider: provider}
}

type rankedReply struct {
	RankedIDs []string `json:"ranked_ids"`
}

func (r *LLM) Rerank(ctx context.Context, query string, candidates []model.Candidate, topN int) model.RerankResult {
	if len(candidates) == 0 {
		return model.RerankResult{Candidates: []model.Candidate{}, Notes: NotesNoCandidates}
	}
	if r.provider == nil {
		return fallback(ctx, candidates, topN, "no client configured")
	}

	raw, err := llm.Complete(ctx, r.provider, buildPrompt(query, candidates), llm.NewJSONObjectFormat())
	if err != nil {
		return fallback(ctx, candidates, topN, err.Error())
	}
	reply, err := jsonutil.Decode[rankedReply](raw)
	if err != nil {
		return fallback(ctx, candidates, topN, err.Error())
	}

	return model.RerankResult{
		Candidates: truncate(applyRanking(candidates, reply.RankedIDs), topN),
		Notes:      NotesLLM,
	}
}

// applyRanking puts candidates named in ids first, in that order. Unknown
// and repeated ids are ignored; candidates the model left out follow in
// their original relative order.
func applyRanking(candidates []model.Candidate, ids []string) []model.Candidate {
	byID := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, seen := byID[c.ToolID]; !seen {
			byID[c.ToolID] = i
		}
	}

	used := make([]bool, len(candidates))
	ordered := make([]model.Candidate, 0, len(candidates))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		ordered = append(ordered, candidates[i])
	}
	for i, c := range candidates {
		if !used[i] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

func fallback(ctx context.Context, candidates []model.Candidate, topN int, cause string) model.RerankResult {
	zerolog.Ctx(ctx).Warn().Str("cause", cause).Msg("rerank fell back to retrieval order")
	return model.RerankResult{Candidates: truncate(candidates, topN), Notes: fallbackPrefix + cause}
}

func buildPrompt(query string, candidates []model.Candidate) string {
	var b strings.Builder
	b.WriteString("You are a tool reranker. Given a user request and a list of candidate tools, ")
	b.WriteString("return the best tools ordered from most relevant to least. ")
	b.WriteString(`Output JSON: {"ranked_ids": ["tool_id1", "tool_id2", ...]}.` + "\n")
	b.WriteString("User request:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidates:\n")
	b.WriteString(prompt.Numbered(candidates))
	return b.String()
}

var _ Reranker = (*LLM)(nil)
