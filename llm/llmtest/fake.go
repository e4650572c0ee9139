// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/richinex/toolpilot/llm"
)

// Fake replays canned replies in order and records every prompt it sees.
// Once the script is exhausted the last reply is repeated.
type Fake struct {
	Replies []string
	Err     error

	mu      sync.Mutex
	prompts []string
	formats []*llm.ResponseFormat
}

// NewFake returns a Fake answering with replies.
func NewFake(replies ...string) *Fake {
	return &Fake{Replies: replies}
}

// Failing returns a Fake whose every call fails with err.
func Failing(err error) *Fake {
	return &Fake{Err: err}
}

func (f *Fake) Name() string  { return "fake" }
func (f *Fake) Model() string { return "fake-model" }

func (f *Fake) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	return f.ChatWithFormat(ctx, messages, nil)
}

func (f *Fake) ChatWithFormat(ctx context.Context, messages []llm.ChatMessage, format *llm.ResponseFormat) (llm.LLMResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var prompt string
	for _, m := range messages {
		prompt += m.Content
	}
	f.prompts = append(f.prompts, prompt)
	f.formats = append(f.formats, format)

	if err := ctx.Err(); err != nil {
		return llm.LLMResponse{}, err
	}
	if f.Err != nil {
		return llm.LLMResponse{}, f.Err
	}
	if len(f.Replies) == 0 {
		return llm.LLMResponse{}, nil
	}
	idx := len(f.prompts) - 1
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return llm.LLMResponse{Content: f.Replies[idx]}, nil
}

// Calls returns the number of requests made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns a copy of the concatenated message text per request.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// LastFormat returns the response format of the most recent request.
func (f *Fake) LastFormat() *llm.ResponseFormat {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.formats) == 0 {
		return nil
	}
	return f.formats[len(f.formats)-1]
}

var _ llm.Provider = (*Fake)(nil)
