package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	jsonutil "github.com/richinex/toolpilot/internal/json"
	"github.com/richinex/toolpilot/internal/prompt"
	"github.com/richinex/toolpilot/llm"
	"github.com/richinex/toolpilot/model"
)

// DefaultMaxCandidates bounds the candidates shown to the model.
const DefaultMaxCandidates = 10

// LLM asks a chat model for the plan. Unlike reranking, a bad reply here
// is returned to the caller: the plan is the primary output.
type LLM struct {
	provider llm.Provider
}

// NewLLM creates a model-backed planner. A nil provider is accepted;
// Plan then fails with model.ErrConfiguration.
func NewLLM(provider llm.Provider) *LLM {
	return &LLM{provider: provider}
}

type planReply struct {
	Steps []model.Step `json:"steps"`
}

func (p *LLM) Plan(ctx context.Context, query string, candidates []model.Candidate, maxCandidates int) (model.Plan, error) {
	if p.provider == nil {
		return model.Plan{}, fmt.Errorf("planner: %w", model.ErrConfiguration)
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	raw, err := llm.Complete(ctx, p.provider, buildPrompt(query, candidates), llm.NewJSONObjectFormat())
	if err != nil {
		return model.Plan{}, fmt.Errorf("planner: %w", err)
	}
	reply, err := jsonutil.Decode[planReply](raw)
	if err != nil {
		return model.Plan{}, &model.ResponseFormatError{Stage: "plan", Raw: raw, Err: err}
	}

	byID := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ToolID] = c
	}
	steps := make([]model.Step, 0, len(reply.Steps))
	for _, step := range reply.Steps {
		if c, ok := byID[step.ToolID]; ok {
			step.Name = c.Name
			step.APIName = c.APIName
		}
		if step.Arguments == nil {
			step.Arguments = map[string]any{}
		}
		steps = append(steps, step)
	}

	plan := model.Plan{
		Query:                query,
		Strategy:             StrategyLLM,
		Steps:                steps,
		CandidatesConsidered: model.CandidateIDs(candidates),
	}
	zerolog.Ctx(ctx).Info().Str("strategy", plan.Strategy).Int("steps", len(steps)).Msg("plan ready")
	return plan, nil
}

func buildPrompt(query string, candidates []model.Candidate) string {
	var b strings.Builder
	b.WriteString("You are a tool-calling planner. Given a user request and a list of candidate tools, ")
	b.WriteString("produce a JSON plan of tool invocations.\n")
	b.WriteString("Output JSON format:\n")
	b.WriteString(`{"strategy":"llm_planner","steps":[{"tool_id":"...","arguments":{"param":"value"}}]}` + "\n")
	fmt.Fprintf(&b, "If an argument is unknown, use the string %q. Do not add explanations.\n\n", model.Placeholder)
	b.WriteString("User request:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate tools:\n")
	b.WriteString(prompt.Bulleted(candidates))
	return b.String()
}

var _ Planner = (*LLM)(nil)
