package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/common"
	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

const followUpSystemPrompt = `Given a question, the answer given, and the sources used, suggest up to 3
natural follow-up questions the user might ask next. Reply with JSON:
{"follow_ups":[{"question":"...","relevance":0.0-1.0}]}`

// Generator produces follow-up questions with a short, strict timeout —
// failure or timeout returns an empty list rather than an error (§4.11).
type Generator struct {
	llm chat.Chat
	cfg *config.ChatConfig
}

func NewGenerator(llm chat.Chat, cfg *config.ChatConfig) *Generator {
	return &Generator{llm: llm, cfg: cfg}
}

func (g *Generator) Generate(ctx context.Context, query, response string, sources []string, media []types.MediaReference) []types.FollowUp {
	if g == nil || g.llm == nil {
		return nil
	}
	timeout := g.cfg.FollowUpTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nSources:\n%s\n\nMedia: %d references",
		query, response, strings.Join(sources, "\n---\n"), len(media))

	result, err := g.llm.Chat(ctx, []chat.Message{
		{Role: "system", Content: followUpSystemPrompt},
		{Role: "user", Content: prompt},
	}, &chat.ChatOptions{Temperature: 0.3, MaxTokens: 300})
	if err != nil {
		logger.Warnf(ctx, "follow-up generation failed, returning no follow-ups: %v", err)
		return nil
	}

	var parsed struct {
		FollowUps []types.FollowUp `json:"follow_ups"`
	}
	if err := common.ParseLLMJsonResponse(result.Content, &parsed); err != nil {
		logger.Warnf(ctx, "follow-up generation returned unparseable result: %v", err)
		return nil
	}

	limit := g.cfg.FollowUpLimit
	if limit <= 0 {
		limit = 3
	}
	if len(parsed.FollowUps) > limit {
		parsed.FollowUps = parsed.FollowUps[:limit]
	}
	return parsed.FollowUps
}
