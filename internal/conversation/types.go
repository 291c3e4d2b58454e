package conversation

import (
	"encoding/json"
	"time"

	"fsearch/internal/search"
)

// State is the per-query conversation snapshot. One instance exists per
// distinct query string; it is created on the first successful search for
// that query and overwritten by later searches under the same key.
type State struct {
	SessionID           string                    `json:"sessionId"`
	CurrentResults      json.RawMessage           `json:"currentResults,omitempty"`
	OriginalQuery       string                    `json:"originalQuery"`
	IsFollowUp          bool                      `json:"isFollowUp"`
	ConversationHistory []search.ChatHistoryEntry `json:"conversationHistory"`
}

// ChatSession is one record in the session-list view.
type ChatSession struct {
	SessionID string                    `json:"sessionId"`
	Query     string                    `json:"query"`
	Summary   string                    `json:"summary"`
	Sources   []search.Source           `json:"sources"`
	History   []search.ChatHistoryEntry `json:"history"`
	CreatedAt time.Time                 `json:"createdAt"`
}
