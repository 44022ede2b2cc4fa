package types

// Preset selects the prompt template assembled by the Chat Orchestrator.
type Preset string

const (
	PresetConcise   Preset = "concise"
	PresetDetailed  Preset = "detailed"
	PresetResearch  Preset = "research"
	PresetTechnical Preset = "technical"
	PresetCreative  Preset = "creative"
	PresetQnA       Preset = "qna"
)

// ChatMessageInput is one entry of an OpenAI-compatible messages array.
type ChatMessageInput struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// RetrievalConfig carries the Retrieval Orchestrator knobs through a chat
// request; it mirrors RetrievalRequest but every field is optional with
// documented defaults applied by the orchestrator.
type RetrievalConfig struct {
	Mode           SearchMode     `json:"mode,omitempty"`
	TopK           int            `json:"top_k,omitempty"`
	DocumentType   string         `json:"document_type,omitempty"`
	Rerank         *bool          `json:"rerank,omitempty"`
	EnableGraph    *bool          `json:"enable_graph,omitempty"`
	Hierarchical   *bool          `json:"hierarchical,omitempty"`
	ExpandContext  *bool          `json:"expand_context,omitempty"`
	MetadataFilter MetadataFilter `json:"metadata_filter,omitempty"`
}

// GenerationConfig carries LLM generation knobs through a chat request.
type GenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// ChatRequest is the external chat API request body: OpenAI-compatible
// messages or a legacy single message field, plus retrieval/generation
// configuration and orchestration flags.
type ChatRequest struct {
	Messages          []ChatMessageInput `json:"messages,omitempty"`
	Message           string             `json:"message,omitempty"`
	SessionID         string             `json:"session_id,omitempty"`
	CollectionID      string             `json:"collection_id,omitempty"`
	Retrieval         RetrievalConfig    `json:"retrieval,omitempty"`
	Generation        GenerationConfig   `json:"generation,omitempty"`
	Model             string             `json:"model,omitempty"`
	Preset            Preset             `json:"preset,omitempty"`
	ReasoningMode     ReasoningMode      `json:"reasoning_mode,omitempty"`
	Temperature       *float64           `json:"temperature,omitempty"`
	MaxTokens         *int               `json:"max_tokens,omitempty"`
	CustomInstruction string             `json:"custom_instruction,omitempty"`
	SystemPrompt      string             `json:"system_prompt,omitempty"`
	IsFollowUp        bool               `json:"is_follow_up"`
	Stream            bool               `json:"stream"`
}

// LastUserMessage resolves the effective query text, preferring the
// OpenAI-compatible messages array's final user turn over the legacy field.
func (r *ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return r.Message
}

// Usage reports token accounting for a chat turn: tokens counted on the
// assembled prompt text, on the final (possibly corrected) response, their
// sum, and the count of retrieved tokens fed into the prompt.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
	Retrieval  int `json:"retrieval"`
}

// StreamEventType is the SSE event vocabulary emitted by the Chat
// Orchestrator, in the order it may appear: reasoning_step, sub_query,
// sources, media, delta, follow_up, usage, done, error.
type StreamEventType string

const (
	EventReasoningStep StreamEventType = "reasoning_step"
	EventSubQuery      StreamEventType = "sub_query"
	EventSources       StreamEventType = "sources"
	EventMedia         StreamEventType = "media"
	EventDelta         StreamEventType = "delta"
	EventFollowUp      StreamEventType = "follow_up"
	EventUsage         StreamEventType = "usage"
	EventDone          StreamEventType = "done"
	EventError         StreamEventType = "error"
)

// StreamEvent is one SSE frame: `data: <json>\n\n`.
type StreamEvent struct {
	Type     StreamEventType    `json:"type"`
	Content  string             `json:"content,omitempty"`
	Step     ReasoningStepKind  `json:"step,omitempty"`
	SubQuery string             `json:"sub_query,omitempty"`
	Sources  []*SourceReference `json:"sources,omitempty"`
	Media    []*MediaReference  `json:"media,omitempty"`
	FollowUp *FollowUp          `json:"follow_up,omitempty"`
	Usage    *Usage             `json:"usage,omitempty"`
	Done     bool               `json:"done,omitempty"`
	Error    string             `json:"error,omitempty"`
	Metadata JSONMap            `json:"metadata,omitempty"`
}

// ChatResponse is the non-streaming aggregated response, carrying the same
// sub-structures a streamed session would emit incrementally.
type ChatResponse struct {
	SessionID  string             `json:"session_id"`
	Content    string             `json:"content"`
	Sources    []*SourceReference `json:"sources,omitempty"`
	Media      []*MediaReference  `json:"media,omitempty"`
	FollowUps  []*FollowUp        `json:"follow_ups,omitempty"`
	Reasoning  *ReasoningTrace    `json:"reasoning,omitempty"`
	Usage      Usage              `json:"usage"`
	Corrected  bool               `json:"corrected"`
}
