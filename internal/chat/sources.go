package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// assembleSources implements §4.12's four-step source assembly: convert hits
// to SourceReferences, dedupe by (document_id, chunk_index) and by shared
// filename across graph/chunk sources, then sort descending by score.
func assembleSources(hits []*types.Hit) []*types.SourceReference {
	byKey := make(map[string]*types.SourceReference)
	order := make([]string, 0, len(hits))
	byFilename := make(map[string]string) // filename -> key, for graph/chunk collapse

	for _, h := range hits {
		ref := hitToSourceReference(h)
		docKey := ref.DocumentID
		if docKey == "" {
			docKey = ref.Filename
		}
		key := fmt.Sprintf("%s#%d", docKey, ref.ChunkIndex)

		graphSourced := false
		if h.Metadata != nil {
			if v, ok := h.Metadata["graph_sourced"].(bool); ok {
				graphSourced = v
			}
		}

		if graphSourced && ref.Filename != "" {
			if existingKey, ok := byFilename[ref.Filename]; ok {
				if existing := byKey[existingKey]; existing != nil && ref.Score > existing.Score {
					*existing = *ref
				}
				continue
			}
		}

		if existing, ok := byKey[key]; ok {
			if ref.Score > existing.Score {
				*existing = *ref
			}
			continue
		}

		byKey[key] = ref
		order = append(order, key)
		if ref.Filename != "" {
			byFilename[ref.Filename] = key
		}
	}

	out := make([]*types.SourceReference, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func hitToSourceReference(h *types.Hit) *types.SourceReference {
	return &types.SourceReference{
		DocumentID: h.Document.ID,
		Title:      h.Document.Title,
		Filename:   h.Document.Filename,
		ChunkIndex: h.ChunkIndex,
		Score:      effectiveScore(h),
	}
}

func effectiveScore(h *types.Hit) float64 {
	if h.RerankScore != nil {
		return *h.RerankScore
	}
	return h.Score
}

// graphReferencesToSources converts graph library references into
// SourceReferences, synthesizing a stable id by hashing the file path or
// content when the library doesn't supply one.
func graphReferencesToSources(refs []*types.GraphReference) []*types.SourceReference {
	out := make([]*types.SourceReference, 0, len(refs))
	for _, r := range refs {
		id := r.ID
		if id == "" {
			hashInput := r.FilePath
			if hashInput == "" {
				hashInput = r.Content
			}
			digest := sha256.Sum256([]byte(hashInput))
			id = hex.EncodeToString(digest[:8])
		}
		out = append(out, &types.SourceReference{
			DocumentID: id,
			Title:      r.Title,
			Filename:   r.FilePath,
		})
	}
	return out
}
