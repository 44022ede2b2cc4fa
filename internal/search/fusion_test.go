package search

import (
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func hit(id string, score float64, matchType string) *types.Hit {
	return &types.Hit{ChunkID: id, Score: score, MatchType: matchType}
}

func TestReciprocalRankFusionOrdersByCombinedRank(t *testing.T) {
	vector := []*types.Hit{hit("a", 0.9, "vector"), hit("b", 0.8, "vector"), hit("c", 0.7, "vector")}
	keyword := []*types.Hit{hit("c", 0.95, "keyword"), hit("a", 0.5, "keyword")}

	fused := ReciprocalRankFusion(60, vector, keyword)

	if len(fused) != 3 {
		t.Fatalf("expected 3 fused hits, got %d", len(fused))
	}
	// "a" ranks 1st in vector and 2nd in keyword, "c" ranks 3rd in vector
	// and 1st in keyword — "a" should win on combined reciprocal rank.
	if fused[0].ChunkID != "a" {
		t.Fatalf("expected chunk a to rank first, got %s", fused[0].ChunkID)
	}
}

func TestReciprocalRankFusionReportsMaxOriginalScore(t *testing.T) {
	vector := []*types.Hit{hit("a", 0.3, "vector")}
	keyword := []*types.Hit{hit("a", 0.9, "keyword")}

	fused := ReciprocalRankFusion(60, vector, keyword)

	if len(fused) != 1 {
		t.Fatalf("expected 1 fused hit, got %d", len(fused))
	}
	if fused[0].Score != 0.9 {
		t.Fatalf("expected reported score to be the max original score 0.9, got %v", fused[0].Score)
	}
}

func TestReciprocalRankFusionMarksHybridMatchType(t *testing.T) {
	vector := []*types.Hit{hit("a", 0.9, "vector")}
	keyword := []*types.Hit{hit("a", 0.5, "keyword")}

	fused := ReciprocalRankFusion(60, vector, keyword)

	if fused[0].MatchType != "hybrid" {
		t.Fatalf("expected match_type hybrid for a hit appearing in both lists, got %q", fused[0].MatchType)
	}
}

func TestReciprocalRankFusionSingleListPreservesMatchType(t *testing.T) {
	vector := []*types.Hit{hit("a", 0.9, "vector")}

	fused := ReciprocalRankFusion(60, vector)

	if fused[0].MatchType != "vector" {
		t.Fatalf("expected match_type vector unchanged for a hit present in one list, got %q", fused[0].MatchType)
	}
}
