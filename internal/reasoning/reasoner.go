// Package reasoning implements the Deep Reasoner (§4.9): query
// decomposition, iterative per-sub-query retrieval, and score-based
// synthesis, used when a chat request sets reasoning_mode=deep.
package reasoning

import (
	"context"
	"sort"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// Reasoner decomposes a query, retrieves for each sub-query, and synthesizes
// a single ranked hit list.
type Reasoner struct {
	llm       chat.Chat
	retriever interfaces.Retriever
	cfg       *config.DeepReasoningConfig
}

func NewReasoner(llm chat.Chat, retriever interfaces.Retriever, cfg *config.DeepReasoningConfig) *Reasoner {
	return &Reasoner{llm: llm, retriever: retriever, cfg: cfg}
}

// Result bundles the synthesized hits with the trace of steps taken, so the
// Chat Orchestrator can emit reasoning_step/sub_query events in order.
type Result struct {
	Hits       []*types.Hit
	Trace      *types.ReasoningTrace
	SubQueries []string
}

// Run performs the full decompose → iterative-retrieve → synthesize flow.
// emit is called once per sub-query as it's dispatched, immediately after
// decomposition, so the caller can stream reasoning_step/sub_query events
// without waiting for the whole pipeline to finish.
func (r *Reasoner) Run(ctx context.Context, base types.SearchParams, emit func(subQuery string)) (*Result, error) {
	maxSub := r.cfg.MaxSubQueries
	if maxSub <= 0 {
		maxSub = 3
	}
	subQueries := Decompose(ctx, r.llm, base.Query, maxSub)

	perSub := r.cfg.TopKPerSub
	if perSub <= 0 {
		perSub = 5
	}

	seen := make(map[string]bool)
	var union []*types.Hit

	for _, sq := range subQueries {
		if emit != nil {
			emit(sq)
		}
		params := base
		params.Query = sq
		params.TopK = perSub

		resp, err := r.retriever.Retrieve(ctx, params)
		if err != nil {
			continue // one failed sub-query shouldn't sink the whole reasoning pass
		}
		for _, h := range resp.Results {
			if seen[h.ChunkID] {
				continue // keep first occurrence, already best per call
			}
			seen[h.ChunkID] = true
			union = append(union, h)
		}
	}

	sort.SliceStable(union, func(i, j int) bool { return union[i].Score > union[j].Score })
	cap := 2 * base.TopK
	if cap > 0 && len(union) > cap {
		union = union[:cap]
	}

	trace := &types.ReasoningTrace{
		Steps:      []types.ReasoningStepKind{types.ReasoningStepDecompose, types.ReasoningStepRetrieve, types.ReasoningStepSynthesize},
		SubQueries: subQueries,
	}
	return &Result{Hits: union, Trace: trace, SubQueries: subQueries}, nil
}
