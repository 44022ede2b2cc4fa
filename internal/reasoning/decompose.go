package reasoning

import (
	"context"
	"strings"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
)

const decomposeSystemPrompt = `Break the user's question into 2-3 focused sub-questions that together
cover everything needed to answer it fully. Reply with one sub-question per line, each prefixed
with "- ". Do not include any other text.`

// Decompose asks the LLM for 2-3 focused sub-queries and parses the
// line-prefixed output. The original query is always retained in position 0
// (§4.9 step 1); on parse failure the sub-query list is just [original].
func Decompose(ctx context.Context, llm chat.Chat, query string, maxSubQueries int) []string {
	subQueries := []string{query}
	if llm == nil {
		return subQueries
	}
	messages := []chat.Message{
		{Role: "system", Content: decomposeSystemPrompt},
		{Role: "user", Content: query},
	}
	result, err := llm.Chat(ctx, messages, &chat.ChatOptions{Temperature: 0.2, MaxTokens: 300})
	if err != nil {
		return subQueries
	}
	parsed := parseSubQueries(result.Content)
	if len(parsed) == 0 {
		return subQueries
	}
	if maxSubQueries > 0 && len(parsed) > maxSubQueries-1 {
		parsed = parsed[:maxSubQueries-1]
	}
	return append(subQueries, parsed...)
}

func parseSubQueries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimLeft(line, "0123456789.)")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
