package chat

import (
	"strings"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

func TestPresetDefaultsFallsBackToConciseForUnknownPreset(t *testing.T) {
	template, temp, maxTokens := presetDefaults(types.Preset("bogus"))
	wantTemplate, wantTemp, wantMaxTokens := presetDefaults(types.PresetConcise)
	if template != wantTemplate || temp != wantTemp || maxTokens != wantMaxTokens {
		t.Errorf("expected unknown preset to fall back to concise defaults, got %q %v %d", template, temp, maxTokens)
	}
}

func TestBuildPromptUsesPresetTemplateAndDefaultsWhenNoOverrides(t *testing.T) {
	req := &types.ChatRequest{Message: "what is the refund policy?", Preset: types.PresetQnA}
	cfg := &config.ChatConfig{}

	p := buildPrompt(req, "refund policy context", "", nil, "", cfg)
	if len(p.messages) != 2 {
		t.Fatalf("expected a system message and a user message, got %d", len(p.messages))
	}
	if p.messages[0].Role != "system" || !strings.Contains(p.messages[0].Content, "one or two sentences") {
		t.Errorf("expected the qna preset template in the system message, got %q", p.messages[0].Content)
	}
	if p.messages[1].Role != "user" || p.messages[1].Content != "what is the refund policy?" {
		t.Errorf("expected the user message to be the query text, got %q", p.messages[1].Content)
	}
	if p.opts.MaxTokens != 250 {
		t.Errorf("expected the qna preset's default max tokens, got %d", p.opts.MaxTokens)
	}
}

func TestBuildPromptAppliesRequestOverridesForTemperatureAndMaxTokens(t *testing.T) {
	temp := 0.9
	maxTokens := 42
	req := &types.ChatRequest{Message: "hi", Temperature: &temp, MaxTokens: &maxTokens}
	p := buildPrompt(req, "", "", nil, "", &config.ChatConfig{})
	if p.opts.Temperature != 0.9 || p.opts.MaxTokens != 42 {
		t.Errorf("expected request overrides applied, got %+v", p.opts)
	}
}

func TestBuildPromptWithSystemPromptOverridePutsContextInFirstUserMessage(t *testing.T) {
	req := &types.ChatRequest{Message: "the question", SystemPrompt: "You are a pirate."}
	p := buildPrompt(req, "some context", "", nil, "", &config.ChatConfig{})

	if p.messages[0].Content != "You are a pirate." {
		t.Errorf("expected the raw system prompt override, got %q", p.messages[0].Content)
	}
	last := p.messages[len(p.messages)-1]
	if !strings.Contains(last.Content, "some context") || !strings.HasSuffix(last.Content, "the question") {
		t.Errorf("expected the context prefixed onto the user message, got %q", last.Content)
	}
}

func TestBuildPromptIncludesGraphNarrativeWhenPresent(t *testing.T) {
	req := &types.ChatRequest{Message: "q"}
	p := buildPrompt(req, "base context", "Acme employs Jane.", nil, "", &config.ChatConfig{})
	if !strings.Contains(p.messages[0].Content, "Related knowledge graph facts") {
		t.Errorf("expected the graph narrative section, got %q", p.messages[0].Content)
	}
}

func TestBuildPromptIncludesHistoryMessagesInOrder(t *testing.T) {
	req := &types.ChatRequest{Message: "q3"}
	history := []*types.ChatMessage{
		{Role: types.RoleUser, Content: "q1"},
		{Role: types.RoleAssistant, Content: "a1"},
	}
	p := buildPrompt(req, "", "", history, "", &config.ChatConfig{})
	if len(p.messages) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d", len(p.messages))
	}
	if p.messages[1].Content != "q1" || p.messages[2].Content != "a1" {
		t.Errorf("expected history preserved in order, got %+v", p.messages)
	}
}

func TestBuildPromptAddsPreviousContextOnlyForFollowUps(t *testing.T) {
	req := &types.ChatRequest{Message: "follow up", IsFollowUp: true}
	p := buildPrompt(req, "", "", nil, "earlier exchange", &config.ChatConfig{})

	found := false
	for _, m := range p.messages {
		if strings.Contains(m.Content, "previous_context:") && strings.Contains(m.Content, "earlier exchange") {
			found = true
		}
	}
	if !found {
		t.Error("expected a previous_context system message for a follow-up turn")
	}
}

func TestBuildPromptSkipsPreviousContextWhenNotAFollowUp(t *testing.T) {
	req := &types.ChatRequest{Message: "new question", IsFollowUp: false}
	p := buildPrompt(req, "", "", nil, "earlier exchange", &config.ChatConfig{})
	for _, m := range p.messages {
		if strings.Contains(m.Content, "previous_context:") {
			t.Error("expected no previous_context message for a non-follow-up turn")
		}
	}
}

func TestBuildPreviousContextTruncatesLongMessagesAndLimitsExchangeCount(t *testing.T) {
	cfg := &config.ChatConfig{PreviousContextMax: 1, PreviousContextLen: 5}
	history := []*types.ChatMessage{
		{Role: types.RoleUser, Content: "old message that should be dropped"},
		{Role: types.RoleAssistant, Content: "old response that should be dropped"},
		{Role: types.RoleUser, Content: "abcdefgh"},
		{Role: types.RoleAssistant, Content: "ijklmnop"},
	}
	out := buildPreviousContext(history, cfg)
	if strings.Contains(out, "dropped") {
		t.Errorf("expected older exchanges beyond the max to be dropped, got %q", out)
	}
	if !strings.Contains(out, "abcde") || strings.Contains(out, "abcdefgh") {
		t.Errorf("expected message content truncated to 5 chars, got %q", out)
	}
}

func TestBuildPreviousContextAppliesDefaultsWhenConfigIsZeroValue(t *testing.T) {
	history := []*types.ChatMessage{{Role: types.RoleUser, Content: "hi"}}
	out := buildPreviousContext(history, &config.ChatConfig{})
	if !strings.Contains(out, "hi") {
		t.Errorf("expected the message rendered using default limits, got %q", out)
	}
}
