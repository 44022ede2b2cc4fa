package chat

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// tokenCounter wraps a cached tiktoken encoding for usage accounting
// (§4.12: tokens counted on the assembled prompt, the final response, and
// the retrieved-context text that fed into the prompt).
type tokenCounter struct {
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
}

var defaultCounter = &tokenCounter{}

// count lazily resolves the cl100k_base encoding on first use and falls
// back to a four-characters-per-token estimate if the encoding can't be loaded (e.g. no
// network access to fetch the BPE ranks file), rather than failing usage
// accounting altogether.
func (c *tokenCounter) count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.encoding == nil {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return estimateTokens(text)
		}
		c.encoding = enc
	}
	return len(c.encoding.Encode(text, nil, nil))
}

func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// countMessages sums the token count across every message's content.
func countMessages(messages []chat.Message) int {
	total := 0
	for _, m := range messages {
		total += defaultCounter.count(m.Content)
	}
	return total
}

// buildUsage assembles the §4.12 usage block from the assembled prompt
// messages, the retrieved-context text, and the final response.
func buildUsage(promptMessages []chat.Message, retrievedText, response string) types.Usage {
	prompt := countMessages(promptMessages)
	completion := defaultCounter.count(response)
	retrieval := defaultCounter.count(retrievedText)
	return types.Usage{
		Prompt:     prompt,
		Completion: completion,
		Total:      prompt + completion,
		Retrieval:  retrieval,
	}
}
