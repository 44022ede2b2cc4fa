package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// expandContext implements §4.8: for each hit, fetch its neighbors within
// [-WindowBefore, +WindowAfter] in the same document, merge their content,
// and dedupe hits whose windows overlap within the same document (keeping
// the higher-scoring one).
func (o *Orchestrator) expandContext(ctx context.Context, tenantID string, hits []*types.Hit) ([]*types.Hit, error) {
	if len(hits) == 0 {
		return hits, nil
	}
	before, after := o.contextCfg.WindowBefore, o.contextCfg.WindowAfter

	byDocument := make(map[string][]*types.Hit)
	for _, h := range hits {
		byDocument[h.Document.ID] = append(byDocument[h.Document.ID], h)
	}

	for docID, docHits := range byDocument {
		minIdx, maxIdx := docHits[0].ChunkIndex, docHits[0].ChunkIndex
		for _, h := range docHits {
			start, end := h.ChunkIndex-before, h.ChunkIndex+after
			if start < minIdx {
				minIdx = start
			}
			if end > maxIdx {
				maxIdx = end
			}
		}
		neighbors, err := o.store.GetChunkNeighbors(ctx, tenantID, docID, minIdx, maxIdx)
		if err != nil {
			return nil, err
		}
		byIndex := make(map[int]*types.Chunk, len(neighbors))
		for _, c := range neighbors {
			byIndex[c.ChunkIndex] = c
		}

		for _, h := range docHits {
			start, end := h.ChunkIndex-before, h.ChunkIndex+after
			var parts []string
			merged := 0
			for idx := start; idx <= end; idx++ {
				if c, ok := byIndex[idx]; ok {
					parts = append(parts, c.Content)
					merged++
				}
			}
			if merged == 0 {
				continue
			}
			h.ExpandedContent = strings.Join(parts, "\n\n")
			h.ContextWindow = &types.ContextWindow{
				OriginalIndex: h.ChunkIndex,
				StartIndex:    start,
				EndIndex:      end,
				ChunksMerged:  merged,
			}
		}
	}

	return dedupeOverlappingWindows(hits), nil
}

// dedupeOverlappingWindows drops a hit whose [start,end] window overlaps
// another hit's window in the same document, keeping the higher-scoring one.
func dedupeOverlappingWindows(hits []*types.Hit) []*types.Hit {
	sorted := make([]*types.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	kept := make([]*types.Hit, 0, len(hits))
	type window struct{ start, end int }
	claimed := make(map[string][]window)

	for _, h := range sorted {
		if h.ContextWindow == nil {
			kept = append(kept, h)
			continue
		}
		w := window{start: h.ContextWindow.StartIndex, end: h.ContextWindow.EndIndex}
		overlaps := false
		for _, existing := range claimed[h.Document.ID] {
			if w.start <= existing.end && existing.start <= w.end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		claimed[h.Document.ID] = append(claimed[h.Document.ID], w)
		kept = append(kept, h)
	}

	// restore original relative order among survivors
	keptSet := make(map[string]*types.Hit, len(kept))
	for _, h := range kept {
		keptSet[h.ChunkID] = h
	}
	ordered := make([]*types.Hit, 0, len(kept))
	for _, h := range hits {
		if kh, ok := keptSet[h.ChunkID]; ok {
			ordered = append(ordered, kh)
			delete(keptSet, h.ChunkID)
		}
	}
	return ordered
}
