// Client builder for fluent configuration.
//
// Information Hiding:
// - Stage defaults applied at Build time
// - Executor and registry wiring hidden

package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/index"
	"github.com/richinex/toolpilot/plan"
	"github.com/richinex/toolpilot/rerank"
	"github.com/richinex/toolpilot/segment"
	"github.com/richinex/toolpilot/storage"
	"github.com/richinex/toolpilot/tools"
)

// DefaultResponseCount is the number of candidates kept by the reranker
// and handed to the planner when a request does not set Count.
const DefaultResponseCount = 5

// DefaultToolTimeout bounds each tool call made by Execute.
const DefaultToolTimeout = 30 * time.Second

// Builder provides fluent configuration for creating a Client.
// Usage: pipeline.NewBuilder(store).Reranker(rerank.BM25{}).Build()
type Builder struct {
	index          Searcher
	segmenter      segment.Segmenter
	reranker       rerank.Reranker
	planner        plan.Planner
	executor       *tools.Executor
	registry       *tools.Registry
	history        storage.HistoryStorage
	retrievalCount int
	responseCount  int
	logger         *zerolog.Logger
}

// NewBuilder starts a client over the given index.
func NewBuilder(idx Searcher) *Builder {
	return &Builder{index: idx}
}

// Segmenter sets the query segmenter. Without one, every request is
// searched as a single segment.
func (b *Builder) Segmenter(s segment.Segmenter) *Builder {
	b.segmenter = s
	return b
}

// Reranker sets the reranker (identity when unset).
func (b *Builder) Reranker(r rerank.Reranker) *Builder {
	b.reranker = r
	return b
}

// Planner sets the planner (deterministic top-1 when unset).
func (b *Builder) Planner(p plan.Planner) *Builder {
	b.planner = p
	return b
}

// Registry sets the tool registry used by the default executor.
func (b *Builder) Registry(r *tools.Registry) *Builder {
	b.registry = r
	return b
}

// Executor sets the executor, overriding Registry.
func (b *Builder) Executor(e *tools.Executor) *Builder {
	b.executor = e
	return b
}

// History records every served request.
func (b *Builder) History(h storage.HistoryStorage) *Builder {
	b.history = h
	return b
}

// RetrievalCount sets the top-K of each per-segment search.
func (b *Builder) RetrievalCount(n int) *Builder {
	b.retrievalCount = n
	return b
}

// ResponseCount sets the default Count for requests that leave it zero.
func (b *Builder) ResponseCount(n int) *Builder {
	b.responseCount = n
	return b
}

// Logger sets the base logger; request loggers are derived from it.
func (b *Builder) Logger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// Build creates the client.
func (b *Builder) Build() (*Client, error) {
	if b.index == nil {
		return nil, fmt.Errorf("pipeline: index is required")
	}

	c := &Client{
		index:          b.index,
		segmenter:      b.segmenter,
		reranker:       b.reranker,
		planner:        b.planner,
		executor:       b.executor,
		history:        b.history,
		retrievalCount: b.retrievalCount,
		responseCount:  b.responseCount,
	}
	if c.reranker == nil {
		c.reranker = rerank.Identity{}
	}
	if c.planner == nil {
		c.planner = plan.Deterministic{}
	}
	if c.executor == nil {
		c.executor = tools.NewExecutor(b.registry, DefaultToolTimeout)
	}
	if c.retrievalCount <= 0 {
		c.retrievalCount = index.DefaultRetrievalCount
	}
	if c.responseCount <= 0 {
		c.responseCount = DefaultResponseCount
	}
	if b.logger != nil {
		c.logger = b.logger.With().Str("component", "pipeline").Logger()
	} else {
		c.logger = zerolog.Nop()
	}
	return c, nil
}
