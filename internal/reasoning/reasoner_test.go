package reasoning

import (
	"context"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

type fakeChat struct {
	content string
	err     error
}

func (f *fakeChat) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ModelChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ModelChatResult{Content: f.content}, nil
}
func (f *fakeChat) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.LLMStreamChunk, error) {
	return nil, nil
}
func (f *fakeChat) GetModelName() string { return "fake" }
func (f *fakeChat) GetModelID() string   { return "fake-1" }

type fakeRetriever struct {
	byQuery map[string][]*types.Hit
	err     error
	calls   []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, params types.SearchParams) (*types.RetrievalResponse, error) {
	f.calls = append(f.calls, params.Query)
	if f.err != nil {
		return nil, f.err
	}
	return &types.RetrievalResponse{Results: f.byQuery[params.Query], Query: params.Query}, nil
}

func TestRunUnionsAndDeduplicatesAcrossSubQueries(t *testing.T) {
	llm := &fakeChat{content: "- part one\n- part two"}
	retriever := &fakeRetriever{byQuery: map[string][]*types.Hit{
		"original":  {{ChunkID: "a", Score: 0.9}, {ChunkID: "b", Score: 0.5}},
		"part one":  {{ChunkID: "b", Score: 0.7}, {ChunkID: "c", Score: 0.8}},
		"part two":  {{ChunkID: "d", Score: 0.3}},
	}}
	r := NewReasoner(llm, retriever, &config.DeepReasoningConfig{MaxSubQueries: 3, TopKPerSub: 5})

	result, err := r.Run(context.Background(), types.SearchParams{Query: "original", TopK: 10}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Hits) != 4 {
		t.Fatalf("expected 4 deduplicated hits (a,b,c,d), got %d: %+v", len(result.Hits), result.Hits)
	}
	if result.Hits[0].ChunkID != "a" {
		t.Errorf("expected the highest-scored hit first, got %s", result.Hits[0].ChunkID)
	}
}

func TestRunEmitsOncePerSubQuery(t *testing.T) {
	llm := &fakeChat{content: "- part one"}
	retriever := &fakeRetriever{byQuery: map[string][]*types.Hit{}}
	r := NewReasoner(llm, retriever, &config.DeepReasoningConfig{MaxSubQueries: 3, TopKPerSub: 5})

	var emitted []string
	_, err := r.Run(context.Background(), types.SearchParams{Query: "original", TopK: 10}, func(sq string) {
		emitted = append(emitted, sq)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(emitted) != 2 || emitted[0] != "original" || emitted[1] != "part one" {
		t.Errorf("expected emit called for each sub-query in order, got %v", emitted)
	}
}

func TestRunSkipsFailedSubQueryWithoutFailingTheWholePass(t *testing.T) {
	llm := &fakeChat{content: "- part one"}
	retriever := &fakeRetriever{err: context.DeadlineExceeded}
	r := NewReasoner(llm, retriever, &config.DeepReasoningConfig{MaxSubQueries: 3, TopKPerSub: 5})

	result, err := r.Run(context.Background(), types.SearchParams{Query: "original", TopK: 10}, nil)
	if err != nil {
		t.Fatalf("expected Run to tolerate per-sub-query retrieval failures, got %v", err)
	}
	if len(result.Hits) != 0 {
		t.Errorf("expected no hits when every sub-query fails, got %d", len(result.Hits))
	}
}

func TestRunCapsUnionAtTwiceTopK(t *testing.T) {
	hits := make([]*types.Hit, 0, 10)
	for i := 0; i < 10; i++ {
		hits = append(hits, &types.Hit{ChunkID: string(rune('a' + i)), Score: float64(10 - i)})
	}
	llm := &fakeChat{content: ""}
	retriever := &fakeRetriever{byQuery: map[string][]*types.Hit{"original": hits}}
	r := NewReasoner(llm, retriever, &config.DeepReasoningConfig{MaxSubQueries: 1, TopKPerSub: 10})

	result, err := r.Run(context.Background(), types.SearchParams{Query: "original", TopK: 3}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Hits) != 6 {
		t.Fatalf("expected the union capped at 2*top_k=6, got %d", len(result.Hits))
	}
}
