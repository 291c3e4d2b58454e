package search

import "fsearch/internal/gemini"

// Chat history roles as supplied by callers
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatHistoryEntry is one turn of a conversation. Order within a history
// slice is significant: it is replayed to the model as-is on follow-up.
type ChatHistoryEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Source is one cited web source extracted from grounding metadata.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response is the result of a search or follow-up call. Markdown is the
// intermediate structured form of Text; FormattedText is its HTML rendering.
type Response struct {
	Text          string
	Markdown      string
	FormattedText string
	Sources       []Source
	Metadata      *gemini.GroundingMetadata
	Raw           *gemini.GenerateContentResponse
}
