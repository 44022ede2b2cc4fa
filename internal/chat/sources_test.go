package chat

import (
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func hitFor(docID, filename string, chunkIndex int, score float64) *types.Hit {
	return &types.Hit{
		Document:   types.DocumentRef{ID: docID, Filename: filename},
		ChunkIndex: chunkIndex,
		Score:      score,
	}
}

func TestAssembleSourcesDedupesByDocumentAndChunkIndexKeepingHigherScore(t *testing.T) {
	hits := []*types.Hit{
		hitFor("doc1", "a.pdf", 0, 0.5),
		hitFor("doc1", "a.pdf", 0, 0.9),
	}
	out := assembleSources(hits)
	if len(out) != 1 {
		t.Fatalf("expected a single deduped source, got %d", len(out))
	}
	if out[0].Score != 0.9 {
		t.Errorf("expected the higher-scoring hit to win, got %v", out[0].Score)
	}
}

func TestAssembleSourcesSortsDescendingByScore(t *testing.T) {
	hits := []*types.Hit{
		hitFor("doc1", "a.pdf", 0, 0.2),
		hitFor("doc2", "b.pdf", 0, 0.8),
		hitFor("doc3", "c.pdf", 0, 0.5),
	}
	out := assembleSources(hits)
	if len(out) != 3 || out[0].Score != 0.8 || out[1].Score != 0.5 || out[2].Score != 0.2 {
		t.Fatalf("expected sources sorted by descending score, got %+v", out)
	}
}

func TestAssembleSourcesUsesRerankScoreOverBaseScoreWhenPresent(t *testing.T) {
	rerank := 0.95
	h := hitFor("doc1", "a.pdf", 0, 0.1)
	h.RerankScore = &rerank
	out := assembleSources([]*types.Hit{h})
	if out[0].Score != 0.95 {
		t.Errorf("expected the rerank score preferred, got %v", out[0].Score)
	}
}

func TestAssembleSourcesCollapsesGraphSourcedHitsSharingAFilename(t *testing.T) {
	base := hitFor("doc1", "shared.pdf", 0, 0.4)
	graphHit := hitFor("doc2", "shared.pdf", 0, 0.9)
	graphHit.Metadata = types.JSONMap{"graph_sourced": true}

	out := assembleSources([]*types.Hit{base, graphHit})
	if len(out) != 1 {
		t.Fatalf("expected the graph-sourced hit collapsed into the shared filename entry, got %d", len(out))
	}
	if out[0].Score != 0.9 {
		t.Errorf("expected the higher score retained after collapsing, got %v", out[0].Score)
	}
}

func TestGraphReferencesToSourcesUsesGivenIDWhenPresent(t *testing.T) {
	refs := []*types.GraphReference{{ID: "ref-1", Title: "Acme", FilePath: "acme.md"}}
	out := graphReferencesToSources(refs)
	if len(out) != 1 || out[0].DocumentID != "ref-1" {
		t.Fatalf("expected the given ID preserved, got %+v", out)
	}
}

func TestGraphReferencesToSourcesSynthesizesStableIDWhenMissing(t *testing.T) {
	refs := []*types.GraphReference{{FilePath: "acme.md"}}
	out1 := graphReferencesToSources(refs)
	out2 := graphReferencesToSources(refs)
	if out1[0].DocumentID == "" {
		t.Fatal("expected a synthesized non-empty ID")
	}
	if out1[0].DocumentID != out2[0].DocumentID {
		t.Errorf("expected the synthesized ID to be stable across calls, got %q vs %q", out1[0].DocumentID, out2[0].DocumentID)
	}
}

func TestGraphReferencesToSourcesFallsBackToContentHashWhenNoFilePath(t *testing.T) {
	refs := []*types.GraphReference{{Content: "some graph text"}}
	out := graphReferencesToSources(refs)
	if out[0].DocumentID == "" {
		t.Fatal("expected a content-derived ID when no file path is given")
	}
}
