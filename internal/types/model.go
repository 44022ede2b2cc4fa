package types

// ModelSource distinguishes a locally hosted model (served via Ollama) from
// one reached through a remote API (OpenAI-compatible).
type ModelSource string

const (
	ModelSourceLocal  ModelSource = "local"
	ModelSourceRemote ModelSource = "remote"
)

// LLMChunkKind distinguishes the answer text from a thinking/reasoning trace
// some providers interleave into the same stream.
type LLMChunkKind string

const (
	LLMChunkAnswer   LLMChunkKind = "answer"
	LLMChunkThinking LLMChunkKind = "thinking"
)

// LLMStreamChunk is the low-level unit yielded by a model.Chat client's
// streaming call, one level below the Chat Orchestrator's StreamEvent
// vocabulary: it carries only raw provider text, not orchestration state.
type LLMStreamChunk struct {
	Kind    LLMChunkKind
	Content string
	Done    bool
	Usage   Usage
	Err     error
}

// ModelChatResult is the non-streaming result of a single model.Chat call.
type ModelChatResult struct {
	Content string
	Usage   Usage
}
