// Single-turn completion helper used by the model-backed stages.

package llm

import (
	"context"
	"fmt"
)

// Complete sends prompt as a single user message and returns the reply
// text. A nil format requests plain text.
func Complete(ctx context.Context, provider Provider, prompt string, format *ResponseFormat) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("no provider")
	}
	response, err := provider.ChatWithFormat(ctx, []ChatMessage{UserMessage(prompt)}, format)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}
