package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fsearch/internal/apperr"
	"fsearch/internal/search"
)

const apiKeyRequiredMessage = "API key is required to use this search function. Please provide your Gemini API key in settings."

// searchResponse is the payload returned to the browser, which persists it
// locally keyed by the query string.
type searchResponse struct {
	SessionID string                    `json:"sessionId"`
	Query     string                    `json:"query"`
	Summary   string                    `json:"summary"`
	Sources   []search.Source           `json:"sources"`
	History   []search.ChatHistoryEntry `json:"history"`
	Raw       rawResponse               `json:"raw"`
	Metadata  responseMetadata          `json:"metadata"`
}

// followUpResponse deliberately excludes the prior history the caller
// already holds; the caller appends the new entries itself.
type followUpResponse struct {
	SessionID         string                    `json:"sessionId"`
	Summary           string                    `json:"summary"`
	Sources           []search.Source           `json:"sources"`
	NewHistoryEntries []search.ChatHistoryEntry `json:"newHistoryEntries"`
	Raw               rawResponse               `json:"raw"`
	Metadata          responseMetadata          `json:"metadata"`
}

type rawResponse struct {
	ModelResponse string `json:"modelResponse"`
}

type responseMetadata struct {
	Model     string `json:"model"`
	Timestamp string `json:"timestamp"`
}

type followUpRequest struct {
	SessionID string                    `json:"sessionId"`
	Query     string                    `json:"query"`
	APIKey    string                    `json:"apiKey"`
	History   []search.ChatHistoryEntry `json:"history"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query().Get("q")
	apiKey := r.URL.Query().Get("apiKey")

	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	if strings.TrimSpace(apiKey) == "" {
		writeError(w, http.StatusBadRequest, apiKeyRequiredMessage)
		return
	}

	result, err := s.svc.Search(r.Context(), query, apiKey)
	if err != nil {
		s.writeSearchError(w, err, "An error occurred while processing your search")
		return
	}

	// Fresh opaque session id on every top-level search
	sessionID := uuid.NewString()

	writeJSON(w, http.StatusOK, searchResponse{
		SessionID: sessionID,
		Query:     query,
		Summary:   result.FormattedText,
		Sources:   result.Sources,
		History: []search.ChatHistoryEntry{
			{Role: search.RoleUser, Content: query},
			{Role: search.RoleAssistant, Content: result.Text},
		},
		Raw:      rawResponse{ModelResponse: result.Text},
		Metadata: s.metadata(),
	})
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req followUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "SessionId and query are required")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		writeError(w, http.StatusBadRequest, apiKeyRequiredMessage)
		return
	}
	if len(req.History) == 0 {
		writeError(w, http.StatusBadRequest, "Conversation history is required for follow-up questions")
		return
	}

	result, err := s.svc.FollowUp(r.Context(), req.Query, req.History, req.APIKey)
	if err != nil {
		s.writeSearchError(w, err, "An error occurred while processing your follow-up question")
		return
	}

	writeJSON(w, http.StatusOK, followUpResponse{
		SessionID: req.SessionID,
		Summary:   result.FormattedText,
		Sources:   result.Sources,
		NewHistoryEntries: []search.ChatHistoryEntry{
			{Role: search.RoleUser, Content: req.Query},
			{Role: search.RoleAssistant, Content: result.Text},
		},
		Raw:      rawResponse{ModelResponse: result.Text},
		Metadata: s.metadata(),
	})
}

// writeSearchError maps a tagged error to its HTTP status. Credential
// failures get a fixed message; everything else surfaces its own message
// or the generic fallback.
func (s *Server) writeSearchError(w http.ResponseWriter, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	log.Warn().Err(err).Int("status", status).Msg("search request failed")

	message := err.Error()
	switch {
	case status == http.StatusUnauthorized:
		message = "Invalid API key. Please check your settings and try again."
	case message == "":
		message = fallback
	}
	writeError(w, status, message)
}

func (s *Server) metadata() responseMetadata {
	return responseMetadata{
		Model:     s.svc.Model(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
