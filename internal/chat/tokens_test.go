package chat

import (
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
)

func TestEstimateTokensApproximatesFourCharsPerToken(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
	if got := estimateTokens("abcd"); got != 1 {
		t.Errorf("expected 1 token for 4 chars, got %d", got)
	}
	if got := estimateTokens("abcdefgh"); got != 2 {
		t.Errorf("expected 2 tokens for 8 chars, got %d", got)
	}
}

func TestTokenCounterCountReturnsZeroForEmptyTextWithoutLoadingAnEncoding(t *testing.T) {
	c := &tokenCounter{}
	if got := c.count(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if c.encoding != nil {
		t.Error("expected no encoding to be loaded for an empty-text count")
	}
}

func TestCountMessagesSumsAcrossAllMessages(t *testing.T) {
	c := &tokenCounter{}
	prevDefault := defaultCounter
	defaultCounter = c
	defer func() { defaultCounter = prevDefault }()

	total := countMessages([]chat.Message{{Content: ""}, {Content: ""}})
	if total != 0 {
		t.Errorf("expected 0 total tokens for empty messages, got %d", total)
	}
}

func TestBuildUsageTotalEqualsPromptPlusCompletion(t *testing.T) {
	usage := buildUsage(nil, "", "")
	if usage.Total != usage.Prompt+usage.Completion {
		t.Errorf("expected total = prompt + completion, got %+v", usage)
	}
	if usage.Prompt != 0 || usage.Completion != 0 || usage.Retrieval != 0 {
		t.Errorf("expected all-zero usage for empty inputs, got %+v", usage)
	}
}
