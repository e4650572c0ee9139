// Package embedding turns text into fixed-length vectors.
//
// Embedders must be deterministic for identical text within one build or
// query lifecycle; the index store relies on it to compare query vectors
// against stored ones.
package embedding

import (
	"context"
	"fmt"
)

// Embedder maps text to a vector.
type Embedder interface {
	// Name identifies the embedder (for logging and artifact headers).
	Name() string

	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and parameterises an embedder.
type Config struct {
	Kind   string // hashing, openai, gemini
	Model  string
	Dim    int
	APIKey string
}

// New builds the embedder named by cfg.Kind.
func New(cfg Config) (Embedder, error) {
	switch cfg.Kind {
	case "", "hashing":
		return NewHashing(cfg.Dim), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedder: missing API key")
		}
		return NewOpenAI(cfg.APIKey, cfg.Model), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini embedder: missing API key")
		}
		return NewGemini(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Kind)
	}
}
