package search

import (
	"strings"

	"fsearch/internal/gemini"
)

// ExtractSources builds a deduplicated, ordered list of cited sources from
// grounding metadata. Chunk iteration order determines output order; the
// first chunk seen for a URL wins, and later chunks with the same URL are
// ignored even if their title differs. A chunk's snippet is the space-joined
// text of every grounding support that references it.
func ExtractSources(metadata *gemini.GroundingMetadata) []Source {
	sources := []Source{}
	if metadata == nil {
		return sources
	}

	seen := make(map[string]bool, len(metadata.GroundingChunks))
	for i, chunk := range metadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		if seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true

		var snippets []string
		for _, support := range metadata.GroundingSupports {
			for _, idx := range support.GroundingChunkIndices {
				if idx == i {
					snippets = append(snippets, support.Segment.Text)
					break
				}
			}
		}

		sources = append(sources, Source{
			Title:   chunk.Web.Title,
			URL:     chunk.Web.URI,
			Snippet: strings.Join(snippets, " "),
		})
	}

	return sources
}
