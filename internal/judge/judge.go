// Package judge implements the Judge collaborator (§4.10): a three-stage
// LLM-backed validator that pre-analyzes sources into a fact sheet,
// validates a generated response against it, and applies minimal corrections
// to significant issues. Every stage is bounded by a timeout and degrades to
// a neutral outcome on failure rather than surfacing an error.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsonschema "github.com/google/jsonschema-go/jsonschema"

	"github.com/raghavpatnecha/ragserve/internal/common"
	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Judge runs pre_analyze/validate/correct against one chat turn's sources.
type Judge struct {
	llm chat.Chat
	cfg *config.JudgeConfig
}

func NewJudge(llm chat.Chat, cfg *config.JudgeConfig) *Judge {
	return &Judge{llm: llm, cfg: cfg}
}

var factSheetSchema = mustSchema()

func mustSchema() json.RawMessage {
	schema, err := jsonschema.For[types.FactSheet](nil)
	if err != nil {
		panic(fmt.Sprintf("judge: generate fact sheet schema: %v", err))
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("judge: marshal fact sheet schema: %v", err))
	}
	return raw
}

// PreAnalyze extracts a structured fact sheet from the retrieved sources.
// Callers launch this concurrently with answer generation to hide its
// latency behind the LLM stream (§4.10).
func (j *Judge) PreAnalyze(ctx context.Context, query string, sources []string) (*types.FactSheet, error) {
	if j == nil || j.llm == nil || !j.cfg.Enabled {
		return &types.FactSheet{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, orDefault(j.cfg.PreAnalyzeTimeout, 10*time.Second))
	defer cancel()

	prompt := fmt.Sprintf(
		"Extract a fact sheet from these sources as JSON matching this schema:\n%s\n\nQuery: %s\n\nSources:\n%s\n\nReply with JSON only.",
		string(factSheetSchema), query, strings.Join(sources, "\n---\n"))

	result, err := j.llm.Chat(ctx, []chat.Message{{Role: "user", Content: prompt}}, &chat.ChatOptions{Temperature: 0})
	if err != nil {
		logger.Warnf(ctx, "judge pre_analyze failed, continuing with empty fact sheet: %v", err)
		return &types.FactSheet{}, nil
	}

	var sheet types.FactSheet
	if err := common.ParseLLMJsonResponse(result.Content, &sheet); err != nil {
		logger.Warnf(ctx, "judge pre_analyze returned unparseable fact sheet: %v", err)
		return &types.FactSheet{}, nil
	}
	return &sheet, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
