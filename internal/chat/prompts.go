package chat

import (
	"fmt"
	"strings"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// presetTemplates maps each preset to a system-prompt template and default
// generation knobs (§4.12, §6's preset table).
var presetTemplates = map[types.Preset]struct {
	template    string
	temperature float64
	maxTokens   int
}{
	types.PresetConcise:   {"Answer briefly and directly using only the context below.", 0.2, 400},
	types.PresetDetailed:  {"Answer thoroughly, covering every relevant point in the context below.", 0.4, 1200},
	types.PresetResearch:  {"Answer as a careful researcher: cite specifics from the context, note gaps or uncertainty.", 0.3, 1500},
	types.PresetTechnical: {"Answer with precise technical detail, including relevant terminology from the context.", 0.2, 1200},
	types.PresetCreative:  {"Answer engagingly while staying grounded in the context below.", 0.8, 800},
	types.PresetQnA:       {"Answer the question directly in one or two sentences using the context below.", 0.1, 250},
}

func presetDefaults(preset types.Preset) (template string, temperature float64, maxTokens int) {
	t, ok := presetTemplates[preset]
	if !ok {
		t = presetTemplates[types.PresetConcise]
	}
	return t.template, t.temperature, t.maxTokens
}

// assembledPrompt is the result of prompt assembly: the message list to send
// to the LLM plus the resolved generation options.
type assembledPrompt struct {
	messages []chat.Message
	opts     *chat.ChatOptions
}

// buildPrompt assembles the system prompt, retrieved context, graph
// narrative, history and current user message per §4.12. If req carries a
// raw system prompt override, the template is replaced and the context is
// carried in the first user message instead of the system message.
func buildPrompt(req *types.ChatRequest, contextBlock, graphNarrative string, history []*types.ChatMessage, previousContext string, cfg *config.ChatConfig) assembledPrompt {
	template, defaultTemp, defaultMaxTokens := presetDefaults(req.Preset)

	temperature := defaultTemp
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	var systemPrompt string
	var firstUserPrefix string
	if req.SystemPrompt != "" {
		systemPrompt = req.SystemPrompt
		firstUserPrefix = formatContextBlock(contextBlock, graphNarrative)
	} else {
		var b strings.Builder
		b.WriteString(template)
		if req.CustomInstruction != "" {
			b.WriteString("\n\n")
			b.WriteString(req.CustomInstruction)
		}
		b.WriteString("\n\n")
		b.WriteString(formatContextBlock(contextBlock, graphNarrative))
		systemPrompt = b.String()
	}

	messages := []chat.Message{{Role: "system", Content: systemPrompt}}

	for _, h := range history {
		messages = append(messages, chat.Message{Role: string(h.Role), Content: h.Content})
	}

	if req.IsFollowUp && previousContext != "" {
		messages = append(messages, chat.Message{Role: "system", Content: "previous_context:\n" + previousContext})
	}

	userContent := req.LastUserMessage()
	if firstUserPrefix != "" {
		userContent = firstUserPrefix + "\n\n" + userContent
	}
	messages = append(messages, chat.Message{Role: "user", Content: userContent})

	return assembledPrompt{
		messages: messages,
		opts:     &chat.ChatOptions{Temperature: temperature, MaxTokens: maxTokens},
	}
}

func formatContextBlock(contextBlock, graphNarrative string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	if graphNarrative != "" {
		b.WriteString("\n\nRelated knowledge graph facts:\n")
		b.WriteString(graphNarrative)
	}
	return b.String()
}

// buildPreviousContext serializes the last ≤PreviousContextMax exchanges,
// each truncated to ~PreviousContextLen characters (§4.12 follow-up turns).
func buildPreviousContext(history []*types.ChatMessage, cfg *config.ChatConfig) string {
	maxExchanges := cfg.PreviousContextMax
	if maxExchanges <= 0 {
		maxExchanges = 4
	}
	truncateLen := cfg.PreviousContextLen
	if truncateLen <= 0 {
		truncateLen = 1000
	}

	recent := history
	if len(recent) > maxExchanges*2 {
		recent = recent[len(recent)-maxExchanges*2:]
	}

	var b strings.Builder
	for _, m := range recent {
		content := m.Content
		if len(content) > truncateLen {
			content = content[:truncateLen]
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", m.Role, content))
	}
	return b.String()
}
