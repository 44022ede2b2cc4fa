package search

import (
	"sort"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// ReciprocalRankFusion merges ranked result lists into one ranking: each
// chunk's fusion score is sum(1/(k+rank)) across every list it appears in
// (rank is 1-based), but the *reported* Score stays the maximum original
// score the chunk achieved in any input list — only the ordering comes from
// RRF (§4.4).
func ReciprocalRankFusion(k int, lists ...[]*types.Hit) []*types.Hit {
	type entry struct {
		hit       *types.Hit
		rrfScore  float64
		bestScore float64
	}
	byChunk := make(map[string]*entry)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, hit := range list {
			e, ok := byChunk[hit.ChunkID]
			if !ok {
				cp := *hit
				e = &entry{hit: &cp, bestScore: hit.Score}
				byChunk[hit.ChunkID] = e
				order = append(order, hit.ChunkID)
			}
			e.rrfScore += 1.0 / float64(k+rank+1)
			if hit.Score > e.bestScore {
				e.bestScore = hit.Score
			}
			if hit.MatchType != "" && e.hit.MatchType != hit.MatchType {
				e.hit.MatchType = "hybrid"
			}
		}
	}

	entries := make([]*entry, 0, len(order))
	for _, id := range order {
		entries = append(entries, byChunk[id])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rrfScore > entries[j].rrfScore
	})

	out := make([]*types.Hit, len(entries))
	for i, e := range entries {
		e.hit.Score = e.bestScore
		out[i] = e.hit
	}
	return out
}
