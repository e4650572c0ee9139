package plan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/toolpilot/llm/llmtest"
	"github.com/richinex/toolpilot/model"
)

func flightCandidate() model.Candidate {
	return model.Candidate{ToolRecord: model.ToolRecord{
		ToolID:  "book_flight",
		Name:    "book_flight",
		APIName: "flights.book",
		Parameters: model.Parameters{
			Required: []model.Param{
				{Name: "origin", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "date"},
				{Name: "passengers", Type: "integer"},
			},
			Optional: []model.Param{{Name: "cabin"}},
		},
	}, Score: 0.8}
}

func TestDeterministicEmpty(t *testing.T) {
	plan, err := Deterministic{}.Plan(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, plan.Steps)
	assert.NotEmpty(t, plan.Notes)
	assert.Equal(t, StrategyDeterministic, plan.Strategy)

	data, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"steps":[]`)
}

func TestDeterministicTopOne(t *testing.T) {
	other := model.Candidate{ToolRecord: model.ToolRecord{ToolID: "other"}}
	plan, err := Deterministic{}.Plan(context.Background(), "fly", []model.Candidate{flightCandidate(), other}, 5)
	require.NoError(t, err)

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, "book_flight", step.ToolID)
	assert.Equal(t, "flights.book", step.APIName)
	assert.Equal(t, map[string]any{
		"origin":      model.Placeholder,
		"destination": model.Placeholder,
		"date":        model.Placeholder,
		"passengers":  model.Placeholder,
	}, step.Arguments)
	assert.Equal(t, []string{"book_flight"}, plan.CandidatesConsidered)
	assert.Equal(t, "fly", plan.Query)
}

func TestDeterministicSyntheticNames(t *testing.T) {
	c := model.Candidate{ToolRecord: model.ToolRecord{
		ToolID:     "t",
		Parameters: model.Parameters{Required: []model.Param{{Name: ""}, {Name: "x"}}},
	}}
	plan, err := Deterministic{}.Plan(context.Background(), "q", []model.Candidate{c}, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"arg_0": model.Placeholder, "x": model.Placeholder}, plan.Steps[0].Arguments)
}

func TestLLMPlanner(t *testing.T) {
	fake := llmtest.NewFake(`{"strategy": "whatever", "steps": [
		{"tool_id": "book_flight", "arguments": {"origin": "LAX", "destination": "JFK", "date": "<fill>", "passengers": 2}},
		{"tool_id": "unknown_tool"}
	]}`)
	candidates := []model.Candidate{
		flightCandidate(),
		{ToolRecord: model.ToolRecord{ToolID: "b"}},
		{ToolRecord: model.ToolRecord{ToolID: "c"}},
	}

	plan, err := NewLLM(fake).Plan(context.Background(), "fly LA to NY", candidates, 2)
	require.NoError(t, err)

	assert.Equal(t, StrategyLLM, plan.Strategy)
	assert.Equal(t, "fly LA to NY", plan.Query)
	assert.Equal(t, []string{"book_flight", "b"}, plan.CandidatesConsidered)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "flights.book", plan.Steps[0].APIName)
	assert.Equal(t, "LAX", plan.Steps[0].Arguments["origin"])
	assert.Equal(t, float64(2), plan.Steps[0].Arguments["passengers"])
	assert.Empty(t, plan.Steps[1].Name)
	assert.NotNil(t, plan.Steps[1].Arguments)

	prompt := fake.Prompts()[0]
	assert.Contains(t, prompt, "- id:book_flight name:book_flight api:flights.book")
	assert.Contains(t, prompt, "- id:b ")
	assert.NotContains(t, prompt, "- id:c ")
	assert.Contains(t, prompt, `"<fill>"`)
}

func TestLLMPlannerNoStepsKey(t *testing.T) {
	plan, err := NewLLM(llmtest.NewFake(`{}`)).Plan(context.Background(), "q", nil, 3)
	require.NoError(t, err)
	assert.NotNil(t, plan.Steps)
	assert.Empty(t, plan.Steps)
}

func TestLLMPlannerErrors(t *testing.T) {
	_, err := NewLLM(nil).Plan(context.Background(), "q", nil, 3)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = NewLLM(llmtest.NewFake("sorry, I cannot")).Plan(context.Background(), "q", nil, 3)
	var formatErr *model.ResponseFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "plan", formatErr.Stage)

	transport := errors.New("503")
	_, err = NewLLM(llmtest.Failing(transport)).Plan(context.Background(), "q", nil, 3)
	assert.ErrorIs(t, err, transport)
}
