package search

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/models/rerank"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Rerank reranks hits against query using the cross-encoder reranker,
// writing RerankScore on each hit and reordering by it. When reranker is nil
// (unavailable) it's the identity function — hits keep their incoming order
// and RerankScore stays unset (§4.2's "identity fallback when unavailable").
func Rerank(ctx context.Context, reranker rerank.Reranker, query string, hits []*types.Hit) ([]*types.Hit, error) {
	if reranker == nil || len(hits) == 0 {
		return hits, nil
	}
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Content
	}
	results, err := reranker.Rerank(ctx, query, docs)
	if err != nil {
		return hits, nil
	}
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(hits) {
			continue
		}
		score := r.RelevanceScore
		hits[r.Index].RerankScore = &score
	}
	reordered := make([]*types.Hit, len(hits))
	copy(reordered, hits)
	sortByRerankScore(reordered)
	return reordered, nil
}

func sortByRerankScore(hits []*types.Hit) {
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && rerankValue(hits[j-1]) < rerankValue(hits[j]) {
			hits[j-1], hits[j] = hits[j], hits[j-1]
			j--
		}
	}
}

func rerankValue(h *types.Hit) float64 {
	if h.RerankScore != nil {
		return *h.RerankScore
	}
	return h.Score
}
