package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsearch/internal/gemini"
)

func chunk(uri, title string) gemini.GroundingChunk {
	return gemini.GroundingChunk{Web: &gemini.WebSource{URI: uri, Title: title}}
}

func support(text string, indices ...int) gemini.GroundingSupport {
	return gemini.GroundingSupport{
		Segment:               gemini.TextSegment{Text: text},
		GroundingChunkIndices: indices,
	}
}

func TestExtractSourcesNilMetadata(t *testing.T) {
	assert.Empty(t, ExtractSources(nil))
}

func TestExtractSourcesBuildsSnippets(t *testing.T) {
	md := &gemini.GroundingMetadata{
		GroundingChunks: []gemini.GroundingChunk{
			chunk("https://a.example", "Site A"),
			chunk("https://b.example", "Site B"),
		},
		GroundingSupports: []gemini.GroundingSupport{
			support("first span", 0),
			support("second span", 0, 1),
			support("third span", 1),
		},
	}

	sources := ExtractSources(md)
	require.Len(t, sources, 2)

	assert.Equal(t, Source{Title: "Site A", URL: "https://a.example", Snippet: "first span second span"}, sources[0])
	assert.Equal(t, Source{Title: "Site B", URL: "https://b.example", Snippet: "second span third span"}, sources[1])
}

func TestExtractSourcesDeduplicatesByURL(t *testing.T) {
	md := &gemini.GroundingMetadata{
		GroundingChunks: []gemini.GroundingChunk{
			chunk("https://a.example", "First Title"),
			chunk("https://a.example", "Second Title"),
		},
	}

	sources := ExtractSources(md)
	require.Len(t, sources, 1)

	// First-seen URL wins, even when a later chunk carries a different title
	assert.Equal(t, "First Title", sources[0].Title)
}

func TestExtractSourcesPreservesChunkOrder(t *testing.T) {
	md := &gemini.GroundingMetadata{
		GroundingChunks: []gemini.GroundingChunk{
			chunk("https://c.example", "C"),
			chunk("https://a.example", "A"),
			chunk("https://b.example", "B"),
		},
	}

	sources := ExtractSources(md)
	require.Len(t, sources, 3)
	assert.Equal(t, "https://c.example", sources[0].URL)
	assert.Equal(t, "https://a.example", sources[1].URL)
	assert.Equal(t, "https://b.example", sources[2].URL)
}

func TestExtractSourcesSkipsIncompleteChunks(t *testing.T) {
	md := &gemini.GroundingMetadata{
		GroundingChunks: []gemini.GroundingChunk{
			{},
			{Web: &gemini.WebSource{URI: "https://untitled.example"}},
			{Web: &gemini.WebSource{Title: "No URI"}},
			chunk("https://ok.example", "OK"),
		},
	}

	sources := ExtractSources(md)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://ok.example", sources[0].URL)
}

func TestExtractSourcesNoMatchingSupports(t *testing.T) {
	md := &gemini.GroundingMetadata{
		GroundingChunks: []gemini.GroundingChunk{
			chunk("https://quiet.example", "Quiet"),
		},
		GroundingSupports: []gemini.GroundingSupport{
			support("unrelated", 5),
		},
	}

	sources := ExtractSources(md)
	require.Len(t, sources, 1)
	assert.Empty(t, sources[0].Snippet)
}
