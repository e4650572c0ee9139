// Package pipeline composes the stages of a request: segmentation,
// per-segment retrieval, reranking, planning and optional execution.
//
// Information Hiding:
// - Request correlation (request id logger carried on the context)
// - Stage timing and metrics
// - History recording
//
// A request runs synchronously, one stage after another. Stages are
// never mutated to add logging; the client logs around each call.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/metrics"
	"github.com/richinex/toolpilot/model"
	"github.com/richinex/toolpilot/plan"
	"github.com/richinex/toolpilot/rerank"
	"github.com/richinex/toolpilot/segment"
	"github.com/richinex/toolpilot/storage"
	"github.com/richinex/toolpilot/tools"
)

// Stage names used for timings and metrics.
const (
	StageSegment   = "segment"
	StageRetrieval = "retrieval"
	StageRerank    = "rerank"
	StagePlan      = "plan"
	StageExecute   = "execute"
)

// Searcher is the retrieval capability the client needs from the index.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]model.Candidate, error)
}

// Request is one planning request. Count <= 0 selects the client's
// response count; an empty RequestID is generated.
type Request struct {
	Query     string `json:"query"`
	Count     int    `json:"count,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Response is the result of PlanQuery. Candidates are the retrieved
// candidates in retrieval order, before reranking.
type Response struct {
	RequestID  string             `json:"request_id"`
	Query      string             `json:"query"`
	Plan       model.Plan         `json:"plan"`
	Candidates []model.Candidate  `json:"candidates"`
	Timings    map[string]float64 `json:"timings,omitempty"`
}

// RunResponse is a Response plus the outcome of executing its plan.
type RunResponse struct {
	Response
	Execution model.ExecutionResult `json:"execution"`
}

// Client runs requests through the configured stages.
type Client struct {
	index          Searcher
	segmenter      segment.Segmenter
	reranker       rerank.Reranker
	planner        plan.Planner
	executor       *tools.Executor
	history        storage.HistoryStorage
	retrievalCount int
	responseCount  int
	logger         zerolog.Logger
}

// Executor returns the executor used by Execute and Run.
func (c *Client) Executor() *tools.Executor {
	return c.executor
}

// PlanQuery segments, retrieves, reranks and plans. Segmentation and
// planning failures are returned; a reranker failure only changes the
// candidate order.
func (c *Client) PlanQuery(ctx context.Context, req Request) (Response, error) {
	ctx, req = c.begin(ctx, req)

	resp, err := c.planQuery(ctx, req)
	if err != nil {
		metrics.RecordRequest("error")
		c.record(ctx, req, resp, nil, err)
		return resp, err
	}

	metrics.RecordRequest("ok")
	c.record(ctx, req, resp, nil, nil)
	return resp, nil
}

// Execute runs plan against the executor's registry. Step failures are
// reported in the result, never returned.
func (c *Client) Execute(ctx context.Context, p model.Plan) model.ExecutionResult {
	if zerolog.Ctx(ctx).GetLevel() == zerolog.Disabled {
		ctx = c.logger.WithContext(ctx)
	}
	return c.executor.Run(ctx, p)
}

// Run plans the request and executes the plan.
func (c *Client) Run(ctx context.Context, req Request) (RunResponse, error) {
	ctx, req = c.begin(ctx, req)

	resp, err := c.planQuery(ctx, req)
	if err != nil {
		metrics.RecordRequest("error")
		c.record(ctx, req, resp, nil, err)
		return RunResponse{Response: resp}, err
	}

	start := time.Now()
	execution := c.executor.Run(ctx, resp.Plan)
	c.observe(resp.Timings, StageExecute, start)

	metrics.RecordRequest("ok")
	c.record(ctx, req, resp, &execution, nil)
	return RunResponse{Response: resp, Execution: execution}, nil
}

// begin fills request defaults and attaches the request logger to ctx.
func (c *Client) begin(ctx context.Context, req Request) (context.Context, Request) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Count <= 0 {
		req.Count = c.responseCount
	}
	logger := c.logger.With().Str("request_id", req.RequestID).Logger()
	return logger.WithContext(ctx), req
}

func (c *Client) planQuery(ctx context.Context, req Request) (Response, error) {
	logger := zerolog.Ctx(ctx)
	resp := Response{
		RequestID:  req.RequestID,
		Query:      req.Query,
		Candidates: []model.Candidate{},
		Timings:    make(map[string]float64),
	}

	segments, err := c.segment(ctx, req.Query, resp.Timings)
	if err != nil {
		return resp, err
	}

	start := time.Now()
	for _, seg := range segments {
		found, err := c.index.Search(ctx, seg, c.retrievalCount)
		if err != nil {
			return resp, fmt.Errorf("retrieval: %w", err)
		}
		logger.Info().
			Str("query", seg).
			Strs("candidates", model.CandidateIDs(found)).
			Msg("retrieval")
		resp.Candidates = append(resp.Candidates, found...)
	}
	c.observe(resp.Timings, StageRetrieval, start)

	start = time.Now()
	ranked := c.reranker.Rerank(ctx, req.Query, resp.Candidates, req.Count)
	c.observe(resp.Timings, StageRerank, start)
	if rerank.IsFallback(ranked.Notes) {
		metrics.RecordRerankFallback()
	}
	logger.Info().
		Str("query", req.Query).
		Strs("ordered_candidates", model.CandidateIDs(ranked.Candidates)).
		Str("notes", ranked.Notes).
		Msg("rerank")

	start = time.Now()
	p, err := c.planner.Plan(ctx, req.Query, ranked.Candidates, req.Count)
	c.observe(resp.Timings, StagePlan, start)
	if err != nil {
		return resp, fmt.Errorf("plan: %w", err)
	}
	resp.Plan = p
	logger.Info().
		Str("query", req.Query).
		Strs("steps", stepIDs(p.Steps)).
		Str("strategy", p.Strategy).
		Msg("plan")

	logger.Info().
		Strs("candidates", model.CandidateIDs(resp.Candidates)).
		Strs("steps", stepIDs(p.Steps)).
		Msg("result")
	return resp, nil
}

// segment returns the segments to search. No segmenter, or a segmenter
// that finds nothing, yields the full query as the only segment.
func (c *Client) segment(ctx context.Context, query string, timings map[string]float64) ([]string, error) {
	if c.segmenter == nil {
		return []string{query}, nil
	}

	start := time.Now()
	segments, err := c.segmenter.Segment(ctx, query)
	c.observe(timings, StageSegment, start)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if len(segments) == 0 {
		return []string{query}, nil
	}
	zerolog.Ctx(ctx).Debug().Strs("segments", segments).Msg("segmented")
	return segments, nil
}

func (c *Client) observe(timings map[string]float64, stage string, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordStage(stage, elapsed)
	timings[stage] = float64(elapsed.Microseconds()) / 1000
}

// record saves the request to history. Failures are logged, never
// returned: history must not change the outcome of a request.
func (c *Client) record(ctx context.Context, req Request, resp Response, execution *model.ExecutionResult, reqErr error) {
	if c.history == nil {
		return
	}
	logger := zerolog.Ctx(ctx)

	rec := storage.RequestRecord{
		RequestID:  req.RequestID,
		Query:      req.Query,
		Strategy:   resp.Plan.Strategy,
		Status:     storage.StatusPlanned,
		Steps:      len(resp.Plan.Steps),
		Candidates: len(resp.Candidates),
		Timings:    resp.Timings,
		CreatedAt:  time.Now(),
	}
	if reqErr != nil {
		rec.Status = storage.StatusFailed
		rec.Error = reqErr.Error()
	} else if data, err := json.Marshal(resp.Plan); err == nil {
		rec.Plan = data
	}
	if execution != nil {
		rec.Status = storage.StatusExecuted
		if data, err := json.Marshal(execution); err == nil {
			rec.Execution = data
		}
	}

	if err := c.history.SaveRequest(ctx, rec); err != nil {
		logger.Warn().Err(err).Msg("failed to record request history")
	}
}

func stepIDs(steps []model.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ToolID
	}
	return ids
}
