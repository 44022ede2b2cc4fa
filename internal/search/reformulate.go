package search

import (
	"context"
	"strings"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
)

const reformulateSystemPrompt = `You rewrite a user's search query into a single, self-contained query
suitable for retrieval: expand abbreviations, resolve implicit references, keep the same intent.
Reply with the rewritten query only, no explanation.`

// Reformulator rewrites a query for retrieval while the caller keeps the
// original text for cache-key derivation and reranking (§4.7 step 2 — the
// reformulated text never leaks into those two places).
type Reformulator struct {
	llm chat.Chat
}

func NewReformulator(llm chat.Chat) *Reformulator {
	return &Reformulator{llm: llm}
}

// Reformulate returns the rewritten query, or the original query unchanged
// if the LLM is unavailable or returns nothing usable.
func (r *Reformulator) Reformulate(ctx context.Context, query string) string {
	if r == nil || r.llm == nil {
		return query
	}
	messages := []chat.Message{
		{Role: "system", Content: reformulateSystemPrompt},
		{Role: "user", Content: query},
	}
	result, err := r.llm.Chat(ctx, messages, &chat.ChatOptions{Temperature: 0, MaxTokens: 256})
	if err != nil {
		return query
	}
	rewritten := strings.TrimSpace(result.Content)
	if rewritten == "" {
		return query
	}
	return rewritten
}
