package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

const correctSystemPrompt = `You make minimal, surgical edits to an answer to fix only the significant
issues listed below. Preserve the answer's structure, tone and every correct part verbatim. Do not
rewrite sentences that aren't affected by an issue. Reply with the corrected answer only.`

// Correct applies minimal edits fixing only medium/high severity issues,
// returning the response unchanged if there are none to fix or the LLM call
// fails (§4.10).
func (j *Judge) Correct(ctx context.Context, response string, result *types.ValidationResult, facts *types.FactSheet) (string, error) {
	if j == nil || j.llm == nil || !j.cfg.Enabled || !result.HasSignificantIssues() {
		return response, nil
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(j.cfg.CorrectTimeout, 15*time.Second))
	defer cancel()

	significant := make([]types.Issue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if issue.Severity == types.SeverityMedium || issue.Severity == types.SeverityHigh {
			significant = append(significant, issue)
		}
	}
	issuesJSON, _ := json.Marshal(significant)
	factsJSON, _ := json.Marshal(facts)
	prompt := fmt.Sprintf("Issues to fix: %s\n\nFact sheet: %s\n\nOriginal answer:\n%s",
		string(issuesJSON), string(factsJSON), response)

	out, err := j.llm.Chat(ctx, []chat.Message{
		{Role: "system", Content: correctSystemPrompt},
		{Role: "user", Content: prompt},
	}, &chat.ChatOptions{Temperature: 0})
	if err != nil {
		logger.Warnf(ctx, "judge correct failed, keeping original answer: %v", err)
		return response, nil
	}
	if out.Content == "" {
		return response, nil
	}
	return out.Content, nil
}
