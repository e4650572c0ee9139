package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/toolpilot/llm"
	"github.com/richinex/toolpilot/llm/llmtest"
	"github.com/richinex/toolpilot/model"
)

func cand(id, name, desc string, score float64) model.Candidate {
	return model.Candidate{
		ToolRecord: model.ToolRecord{ToolID: id, Name: name, APIName: "api." + name, Description: desc},
		Score:      score,
	}
}

func sample() []model.Candidate {
	return []model.Candidate{
		cand("a", "get_weather", "Current weather for a city", 0.9),
		cand("b", "book_flight", "Book a flight between two airports", 0.8),
		cand("c", "book_hotel", "Reserve a hotel room", 0.7),
		cand("d", "set_alarm", "Set an alarm", 0.6),
	}
}

func TestIdentity(t *testing.T) {
	in := sample()
	result := Identity{}.Rerank(context.Background(), "q", in, 2)
	assert.Equal(t, in[:2], result.Candidates)
	assert.Equal(t, "identity", result.Notes)

	all := Identity{}.Rerank(context.Background(), "q", in, 0)
	assert.Equal(t, in, all.Candidates)

	empty := Identity{}.Rerank(context.Background(), "q", nil, 5)
	assert.Empty(t, empty.Candidates)
}

func TestBM25OrdersByLexicalMatch(t *testing.T) {
	result := BM25{}.Rerank(context.Background(), "book a flight to paris", sample(), 3)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "bm25", result.Notes)
	assert.Equal(t, "b", result.Candidates[0].ToolID)
	assert.Equal(t, "c", result.Candidates[1].ToolID)
	// Zero-score candidates keep retrieval order.
	assert.Equal(t, "a", result.Candidates[2].ToolID)
}

func TestBM25NoMatchKeepsOrder(t *testing.T) {
	result := BM25{}.Rerank(context.Background(), "xyzzy", sample(), 0)
	assert.Equal(t, []string{"a", "b", "c", "d"}, model.CandidateIDs(result.Candidates))

	empty := BM25{}.Rerank(context.Background(), "q", nil, 5)
	assert.Equal(t, "no_candidates", empty.Notes)
	assert.Empty(t, empty.Candidates)
}

func TestLLMRerankOrdersAndAppendsOmitted(t *testing.T) {
	fake := llmtest.NewFake(`{"ranked_ids": ["c", "zzz", "a", "c"]}`)
	result := NewLLM(fake).Rerank(context.Background(), "hotel please", sample(), 0)

	assert.Equal(t, "llm_rerank", result.Notes)
	assert.Equal(t, []string{"c", "a", "b", "d"}, model.CandidateIDs(result.Candidates))
	assert.Equal(t, llm.ResponseFormatJSONObject, fake.LastFormat().Type)

	prompt := fake.Prompts()[0]
	assert.Contains(t, prompt, "hotel please")
	assert.Contains(t, prompt, "0. id:a name:get_weather api:api.get_weather desc:Current weather for a city req:[]")
}

func TestLLMRerankTruncates(t *testing.T) {
	fake := llmtest.NewFake("```json\n{\"ranked_ids\": [\"d\", \"b\"]}\n```")
	result := NewLLM(fake).Rerank(context.Background(), "q", sample(), 3)
	assert.Equal(t, []string{"d", "b", "a"}, model.CandidateIDs(result.Candidates))
}

func TestLLMRerankNoCandidatesSkipsModel(t *testing.T) {
	fake := llmtest.NewFake(`{"ranked_ids": []}`)
	result := NewLLM(fake).Rerank(context.Background(), "q", nil, 5)
	assert.Equal(t, "no_candidates", result.Notes)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, fake.Calls())
}

func TestLLMRerankFallbacks(t *testing.T) {
	cases := map[string]*LLM{
		"no client": NewLLM(nil),
		"bad json":  NewLLM(llmtest.NewFake("I think b is best")),
		"transport": NewLLM(llmtest.Failing(errors.New("timeout"))),
	}
	for name, reranker := range cases {
		t.Run(name, func(t *testing.T) {
			in := sample()
			result := reranker.Rerank(context.Background(), "q", in, 2)
			assert.Equal(t, in[:2], result.Candidates)
			assert.True(t, IsFallback(result.Notes), "notes = %q", result.Notes)
		})
	}

	result := NewLLM(nil).Rerank(context.Background(), "q", sample(), 2)
	assert.Equal(t, "rerank_fallback:no client configured", result.Notes)
}

func TestIsFallback(t *testing.T) {
	assert.True(t, IsFallback("rerank_fallback:boom"))
	assert.False(t, IsFallback("identity"))
	assert.False(t, IsFallback(""))
}
