// Package model provides domain types shared across packages.
package model

import "encoding/json"

// Placeholder marks an argument whose value is unresolved and must be
// filled by the caller before the step is invoked.
const Placeholder = "<fill>"

// Param describes a single tool parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Parameters is the normalized parameter schema of a tool.
// Order of both lists is significant.
type Parameters struct {
	Required []Param `json:"required"`
	Optional []Param `json:"optional"`
}

// MarshalJSON always emits both lists as arrays.
func (p Parameters) MarshalJSON() ([]byte, error) {
	type alias Parameters
	out := alias(p)
	if out.Required == nil {
		out.Required = []Param{}
	}
	if out.Optional == nil {
		out.Optional = []Param{}
	}
	return json.Marshal(out)
}

// RequiredNames returns the required parameter names in declaration order.
func (p Parameters) RequiredNames() []string {
	names := make([]string, len(p.Required))
	for i, param := range p.Required {
		names[i] = param.Name
	}
	return names
}

// ToolRecord is an indexed tool definition. Records are immutable once
// the index is built; the vector lives alongside in the index store.
type ToolRecord struct {
	ID          int        `json:"id"`
	ToolID      string     `json:"tool_id"`
	Text        string     `json:"text"`
	Name        string     `json:"name"`
	APIName     string     `json:"api_name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// ToolInfo is the source definition of a tool before it is indexed.
type ToolInfo struct {
	Name        string     `json:"name"`
	APIName     string     `json:"api_name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Candidate is a retrieved tool with its relevance score for one query.
type Candidate struct {
	ToolRecord
	Score float64 `json:"score"`
}

// CandidateIDs returns the tool ids of candidates in order.
func CandidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ToolID
	}
	return ids
}

// RerankResult is an ordered candidate list (best first) plus notes
// describing which strategy produced it or why it fell back.
type RerankResult struct {
	Candidates []Candidate `json:"candidates"`
	Notes      string      `json:"notes"`
}

// Step is one tool invocation in a plan.
type Step struct {
	ToolID    string         `json:"tool_id"`
	Name      string         `json:"name,omitempty"`
	APIName   string         `json:"api_name,omitempty"`
	Arguments map[string]any `json:"arguments"`
}

// Plan is the structured output of a planner.
type Plan struct {
	Query                string   `json:"query"`
	Strategy             string   `json:"strategy"`
	Steps                []Step   `json:"steps"`
	Notes                string   `json:"notes,omitempty"`
	CandidatesConsidered []string `json:"candidates_considered"`
}

// MarshalJSON emits steps and candidates_considered as arrays even when empty.
func (p Plan) MarshalJSON() ([]byte, error) {
	type alias Plan
	out := alias(p)
	if out.Steps == nil {
		out.Steps = []Step{}
	}
	if out.CandidatesConsidered == nil {
		out.CandidatesConsidered = []string{}
	}
	return json.Marshal(out)
}

// StepStatus is the outcome of a single executed step.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusError   StepStatus = "error"
	StatusSkipped StepStatus = "skipped"
)

// ReasonHandlerNotRegistered is reported when a step names a tool with no handler.
const ReasonHandlerNotRegistered = "handler_not_registered"

// StepResult reports what happened to one plan step.
type StepResult struct {
	ToolID    string         `json:"tool_id"`
	Status    StepStatus     `json:"status"`
	Output    any            `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Arguments map[string]any `json:"arguments"`
}

// ExecutionResult aggregates one StepResult per plan step, in plan order.
type ExecutionResult struct {
	Strategy    string       `json:"strategy"`
	Query       string       `json:"query"`
	StepResults []StepResult `json:"step_results"`
}
