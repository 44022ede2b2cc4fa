package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/common"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

const validateSystemPrompt = `You check a generated answer against a fact sheet extracted from its sources
and the original query. Look for: fabricated_gap (claims filling a gap the sources don't cover),
hallucination (claims contradicting the sources), relevance_failure (answer doesn't address the query),
completeness_gap (a significant part of the query is unanswered), missed_information (a source fact is
omitted that the query needed), internal_contradiction (the answer contradicts itself). Reply with JSON:
{"issues":[{"kind":"...","severity":"low|medium|high","description":"..."}],"confidence":0.0-1.0,
"relevance":0.0-1.0,"completeness":0.0-1.0}`

// Validate checks response against facts and query, returning issues plus
// confidence/relevance/completeness scores. If facts is empty, validation is
// skipped with a fixed confidence of 0.7 (§4.10).
func (j *Judge) Validate(ctx context.Context, query, response string, facts *types.FactSheet) (*types.ValidationResult, error) {
	if facts.Empty() {
		return &types.ValidationResult{Confidence: 0.7}, nil
	}
	if j == nil || j.llm == nil || !j.cfg.Enabled {
		return neutralResult(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(j.cfg.ValidateTimeout, 15*time.Second))
	defer cancel()

	factsJSON, _ := json.Marshal(facts)
	prompt := fmt.Sprintf("Query: %s\n\nFact sheet: %s\n\nAnswer to check:\n%s", query, string(factsJSON), response)

	result, err := j.llm.Chat(ctx, []chat.Message{
		{Role: "system", Content: validateSystemPrompt},
		{Role: "user", Content: prompt},
	}, &chat.ChatOptions{Temperature: 0})
	if err != nil {
		logger.Warnf(ctx, "judge validate failed, returning neutral outcome: %v", err)
		return neutralResult(), nil
	}

	var parsed struct {
		Issues       []types.Issue `json:"issues"`
		Confidence   float64       `json:"confidence"`
		Relevance    float64       `json:"relevance"`
		Completeness float64       `json:"completeness"`
	}
	if err := common.ParseLLMJsonResponse(result.Content, &parsed); err != nil {
		logger.Warnf(ctx, "judge validate returned unparseable result: %v", err)
		return neutralResult(), nil
	}

	vr := &types.ValidationResult{
		Issues:       parsed.Issues,
		Confidence:   parsed.Confidence,
		Relevance:    parsed.Relevance,
		Completeness: parsed.Completeness,
	}
	vr.NeedsCorrection = vr.HasSignificantIssues()
	return vr, nil
}

func neutralResult() *types.ValidationResult {
	return &types.ValidationResult{Confidence: 0.5}
}
