package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "text-embedding-004"

// Gemini embeds text with the Gemini embedContent API.
type Gemini struct {
	client  *genai.Client
	model   string
	initErr error
}

// NewGemini creates a Gemini embedder. Client construction errors are
// reported on first use.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &Gemini{model: model, initErr: fmt.Errorf("failed to initialize Gemini client: %w", err)}
	}
	return &Gemini{client: client, model: model}
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini embedding: empty response")
	}
	return resp.Embeddings[0].Values, nil
}

var _ Embedder = (*Gemini)(nil)
