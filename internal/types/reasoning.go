package types

// ReasoningStepKind names the three phases of deep reasoning, emitted as
// progress events over the chat stream.
type ReasoningStepKind string

const (
	ReasoningStepDecompose ReasoningStepKind = "decompose"
	ReasoningStepRetrieve  ReasoningStepKind = "retrieve"
	ReasoningStepSynthesize ReasoningStepKind = "synthesize"
)

// ReasoningMode selects whether the Chat Orchestrator retrieves directly or
// decomposes the query via the Deep Reasoner first.
type ReasoningMode string

const (
	ReasoningModeStandard ReasoningMode = "standard"
	ReasoningModeDeep     ReasoningMode = "deep"
)

// ReasoningTrace is the transient record of a deep-reasoning pass: ordered
// steps plus the sub-queries generated during decomposition.
type ReasoningTrace struct {
	Steps      []ReasoningStepKind `json:"steps"`
	SubQueries []string            `json:"sub_queries"`
}
