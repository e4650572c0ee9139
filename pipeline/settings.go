package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/config"
	"github.com/richinex/toolpilot/embedding"
	"github.com/richinex/toolpilot/index"
	"github.com/richinex/toolpilot/llm"
	"github.com/richinex/toolpilot/plan"
	"github.com/richinex/toolpilot/rerank"
	"github.com/richinex/toolpilot/segment"
	"github.com/richinex/toolpilot/storage"
	"github.com/richinex/toolpilot/tools"
)

// NewEmbedder builds the embedder selected by settings. Remote embedders
// read their API key from the environment.
func NewEmbedder(settings config.Settings) (embedding.Embedder, error) {
	cfg := embedding.Config{
		Kind:  settings.Models.Embedder,
		Model: settings.Models.EmbedModel,
		Dim:   settings.Models.EmbedDim,
	}
	if cfg.Kind != config.EmbedderHashing && cfg.Kind != "" {
		key, err := config.APIKeyFor(cfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("embedder %s: %w", cfg.Kind, err)
		}
		cfg.APIKey = key
	}
	return embedding.New(cfg)
}

// NewStore creates an index store over the configured artifact pair.
func NewStore(settings config.Settings, embedder embedding.Embedder, logger zerolog.Logger) *index.Store {
	opts := index.Options{
		IndexPath:      settings.Paths.Index,
		MetadataPath:   settings.Paths.Metadata,
		Compression:    settings.Retrieval.Compression,
		ApplyStd:       settings.Retrieval.ApplyStd,
		StdCoef:        settings.Retrieval.StdCoef,
		RetrievalCount: settings.Retrieval.RetrievalCount,
	}
	if settings.Models.Embedder == config.EmbedderHashing {
		opts.Dim = settings.Models.EmbedDim
	}
	return index.New(embedder, opts, logger)
}

// FromSettings builds a client whose stages follow settings. A
// model-backed stage whose provider has no API key is still built: it
// reports model.ErrConfiguration (segmenter, planner) or falls back to
// input order (reranker) when used.
func FromSettings(settings config.Settings, idx Searcher, registry *tools.Registry, history storage.HistoryStorage, logger zerolog.Logger) (*Client, error) {
	b := NewBuilder(idx).
		Registry(registry).
		History(history).
		RetrievalCount(settings.Retrieval.RetrievalCount).
		ResponseCount(settings.Retrieval.ResponseCount).
		Logger(logger)

	switch settings.Pipeline.Segmenter {
	case config.StrategyNone, "":
	case config.StrategyDeterministic:
		s, err := segment.NewDeterministic(settings.Pipeline.MaxSegments)
		if err != nil {
			return nil, err
		}
		b.Segmenter(s)
	case config.StrategyLLM:
		provider, err := newProvider(settings.Models, settings.Models.SegmenterModel, logger)
		if err != nil {
			return nil, err
		}
		b.Segmenter(segment.NewLLM(provider, settings.Pipeline.MaxSegments))
	default:
		return nil, fmt.Errorf("unknown segmenter: %s", settings.Pipeline.Segmenter)
	}

	switch settings.Pipeline.Reranker {
	case config.StrategyIdentity, "":
		b.Reranker(rerank.Identity{})
	case config.StrategyBM25:
		b.Reranker(rerank.BM25{})
	case config.StrategyLLM:
		provider, err := newProvider(settings.Models, settings.Models.RerankModel, logger)
		if err != nil {
			return nil, err
		}
		b.Reranker(rerank.NewLLM(provider))
	default:
		return nil, fmt.Errorf("unknown reranker: %s", settings.Pipeline.Reranker)
	}

	switch settings.Pipeline.Planner {
	case config.StrategyDeterministic, "":
		b.Planner(plan.Deterministic{})
	case config.StrategyLLM:
		provider, err := newProvider(settings.Models, settings.Models.PlannerModel, logger)
		if err != nil {
			return nil, err
		}
		b.Planner(plan.NewLLM(provider))
	default:
		return nil, fmt.Errorf("unknown planner: %s", settings.Pipeline.Planner)
	}

	return b.Build()
}

// newProvider returns nil, nil when the provider's API key is not set.
func newProvider(models config.ModelConfig, model string, logger zerolog.Logger) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(models.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(models.Provider)
	if err != nil {
		logger.Warn().Err(err).Str("provider", models.Provider).Msg("model-backed stage has no client")
		return nil, nil
	}

	return providerType.
		Model(model).
		MaxTokens(models.MaxTokens).
		Temperature(float32(models.Temperature)).
		APIKey(apiKey)
}
