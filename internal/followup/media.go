// Package followup implements the Follow-up & Media collaborator (§4.11):
// scanning sources for media mentions and generating short follow-up
// questions from an LLM.
package followup

import (
	"regexp"
	"strings"

	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/utils"
)

var (
	markdownTableRow = regexp.MustCompile(`^\|.*\|.*\|`)
	figureKeyword    = regexp.MustCompile(`(?i)\b(figure|fig\.)\s*\d*`)
)

// Source is the minimal shape ExtractMedia needs from a retrieved chunk.
type Source struct {
	DocumentID string
	Content    string
	Metadata   types.JSONMap
}

// ExtractMedia scans each source's metadata and content for image/table/
// figure references, deduplicated by (type, document_id, description).
func ExtractMedia(sources []Source) []types.MediaReference {
	seen := make(map[string]bool)
	var out []types.MediaReference

	add := func(ref types.MediaReference) {
		key := string(ref.Kind) + "|" + ref.DocumentID + "|" + ref.Description
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ref)
	}

	for _, src := range sources {
		if src.Metadata != nil {
			if images, ok := src.Metadata["images"].([]any); ok {
				for _, img := range images {
					if m, ok := img.(map[string]any); ok {
						desc, _ := m["description"].(string)
						url, _ := m["url"].(string)
						if !utils.IsValidImageURL(url) {
							url = ""
						}
						add(types.MediaReference{Kind: types.MediaImage, DocumentID: src.DocumentID, Description: utils.SanitizeForDisplay(desc), URL: url})
					}
				}
			}
		}

		for _, line := range strings.Split(src.Content, "\n") {
			trimmed := strings.TrimSpace(line)
			if markdownTableRow.MatchString(trimmed) {
				add(types.MediaReference{Kind: types.MediaTable, DocumentID: src.DocumentID, Description: utils.SanitizeForDisplay(firstWords(trimmed, 12))})
				continue
			}
			if loc := figureKeyword.FindString(trimmed); loc != "" {
				add(types.MediaReference{Kind: types.MediaFigure, DocumentID: src.DocumentID, Description: utils.SanitizeForDisplay(firstWords(trimmed, 12))})
			}
		}
	}
	return out
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
