// Package plan maps ranked candidates to a structured invocation plan.
package plan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/model"
)

// Strategy identifiers stamped on plans.
const (
	StrategyDeterministic = "deterministic_top1"
	StrategyLLM           = "llm_planner"
)

// Planner turns candidates into a plan. Planners are stateless per call.
type Planner interface {
	Plan(ctx context.Context, query string, candidates []model.Candidate, maxCandidates int) (model.Plan, error)
}

// Deterministic plans a single call to the top candidate with every
// required argument left as a placeholder. It never guesses values.
type Deterministic struct{}

func (Deterministic) Plan(ctx context.Context, query string, candidates []model.Candidate, _ int) (model.Plan, error) {
	if len(candidates) == 0 {
		return model.Plan{
			Query:                query,
			Strategy:             StrategyDeterministic,
			Steps:                []model.Step{},
			Notes:                "No candidates.",
			CandidatesConsidered: []string{},
		}, nil
	}

	top := candidates[0]
	args := make(map[string]any, len(top.Parameters.Required))
	for i, p := range top.Parameters.Required {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg_%d", i)
		}
		args[name] = model.Placeholder
	}

	plan := model.Plan{
		Query:    query,
		Strategy: StrategyDeterministic,
		Steps: []model.Step{{
			ToolID:    top.ToolID,
			Name:      top.Name,
			APIName:   top.APIName,
			Arguments: args,
		}},
		Notes:                "LLM planner not used; deterministic top-1 plan.",
		CandidatesConsidered: []string{top.ToolID},
	}
	zerolog.Ctx(ctx).Info().Str("strategy", plan.Strategy).Int("steps", len(plan.Steps)).Msg("plan ready")
	return plan, nil
}

var _ Planner = Deterministic{}
