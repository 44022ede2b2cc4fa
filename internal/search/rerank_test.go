package search

import (
	"context"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/models/rerank"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

type fakeReranker struct {
	results []rerank.RankResult
	err     error
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]rerank.RankResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
func (f *fakeReranker) GetModelName() string { return "fake" }
func (f *fakeReranker) GetModelID() string   { return "fake-1" }
func (f *fakeReranker) IsAvailable() bool    { return true }

func TestRerankIsIdentityWhenRerankerIsNil(t *testing.T) {
	hits := []*types.Hit{{ChunkID: "a", Score: 0.1}, {ChunkID: "b", Score: 0.9}}
	out, err := Rerank(context.Background(), nil, "q", hits)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0].ChunkID != "a" || out[1].ChunkID != "b" {
		t.Error("expected hit order unchanged when no reranker is configured")
	}
}

func TestRerankReordersByRelevanceScore(t *testing.T) {
	hits := []*types.Hit{{ChunkID: "a", Content: "doc a", Score: 0.9}, {ChunkID: "b", Content: "doc b", Score: 0.1}}
	reranker := &fakeReranker{results: []rerank.RankResult{
		{Index: 0, RelevanceScore: 0.2},
		{Index: 1, RelevanceScore: 0.8},
	}}

	out, err := Rerank(context.Background(), reranker, "q", hits)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0].ChunkID != "b" || out[1].ChunkID != "a" {
		t.Fatalf("expected reranked order b,a, got %s,%s", out[0].ChunkID, out[1].ChunkID)
	}
	if out[0].RerankScore == nil || *out[0].RerankScore != 0.8 {
		t.Errorf("expected RerankScore to be set on the hit, got %v", out[0].RerankScore)
	}
}

func TestRerankFallsBackToOriginalOrderOnRerankerError(t *testing.T) {
	hits := []*types.Hit{{ChunkID: "a", Score: 0.9}, {ChunkID: "b", Score: 0.1}}
	reranker := &fakeReranker{err: context.DeadlineExceeded}

	out, err := Rerank(context.Background(), reranker, "q", hits)
	if err != nil {
		t.Fatalf("expected Rerank to swallow reranker errors, got %v", err)
	}
	if out[0].ChunkID != "a" || out[1].ChunkID != "b" {
		t.Error("expected the original order preserved on reranker failure")
	}
}

func TestRerankIgnoresOutOfRangeIndices(t *testing.T) {
	hits := []*types.Hit{{ChunkID: "a", Score: 0.5}}
	reranker := &fakeReranker{results: []rerank.RankResult{{Index: 5, RelevanceScore: 0.9}}}

	out, err := Rerank(context.Background(), reranker, "q", hits)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0].RerankScore != nil {
		t.Error("expected an out-of-range rerank index to be ignored")
	}
}

func TestRerankReturnsEmptyUnchanged(t *testing.T) {
	reranker := &fakeReranker{}
	out, err := Rerank(context.Background(), reranker, "q", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no hits for empty input, got %d", len(out))
	}
}
