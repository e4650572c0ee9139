// Plan executor with per-step fault isolation.
//
// Information Hiding:
// - Handler panics and errors converted to step results
// - Per-call timeout applied around each handler
//
// Every step is attempted exactly once; retry policy belongs to the caller.

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/metrics"
	"github.com/richinex/toolpilot/model"
)

// Executor runs plan steps against a registry.
type Executor struct {
	registry *Registry
	timeout  time.Duration
}

// NewExecutor creates an executor. A timeout of zero means handlers run
// under the caller's context only.
func NewExecutor(registry *Registry, timeout time.Duration) *Executor {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Executor{registry: registry, timeout: timeout}
}

// Registry returns the registry the executor dispatches to.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// CallTool runs one step. It never returns an error: an unregistered tool
// is reported as skipped, and a failing or panicking handler as an error
// result. The step's arguments are always echoed back.
func (e *Executor) CallTool(ctx context.Context, step model.Step) model.StepResult {
	args := step.Arguments
	if args == nil {
		args = map[string]any{}
	}
	result := model.StepResult{ToolID: step.ToolID, Arguments: args}
	logger := zerolog.Ctx(ctx).With().Str("tool_id", step.ToolID).Logger()

	tool, ok := e.registry.Get(step.ToolID)
	if !ok {
		result.Status = model.StatusSkipped
		result.Reason = model.ReasonHandlerNotRegistered
		logger.Warn().Msg("tool skipped: no handler registered")
		metrics.RecordToolCall(step.ToolID, string(result.Status), 0)
		return result
	}

	logger.Info().Msg("tool call started")
	start := time.Now()
	output, err := e.invoke(ctx, tool, args)
	elapsed := time.Since(start)

	if err != nil {
		execErr := &model.ToolExecutionError{ToolID: step.ToolID, Err: err}
		result.Status = model.StatusError
		result.Error = err.Error()
		logger.Error().Err(execErr).Dur("duration", elapsed).Msg("tool call failed")
	} else {
		result.Status = model.StatusOK
		result.Output = output
		logger.Info().Dur("duration", elapsed).Msg("tool call succeeded")
	}
	metrics.RecordToolCall(step.ToolID, string(result.Status), elapsed)
	return result
}

// invoke validates and executes tool, converting a panic into an error.
func (e *Executor) invoke(ctx context.Context, tool Tool, args map[string]any) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if v, ok := tool.(Validator); ok {
		if err := v.Validate(args); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return tool.Execute(ctx, args)
}

// Run executes every step of plan strictly in order and returns one
// result per step, whatever the individual outcomes.
func (e *Executor) Run(ctx context.Context, plan model.Plan) model.ExecutionResult {
	results := make([]model.StepResult, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		results = append(results, e.CallTool(ctx, step))
	}
	return model.ExecutionResult{
		Strategy:    plan.Strategy,
		Query:       plan.Query,
		StepResults: results,
	}
}
