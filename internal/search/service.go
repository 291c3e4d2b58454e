// Package search wraps the Gemini model call behind a small gateway: it
// submits grounded queries, formats the raw answer and extracts cited
// sources. The hosted model call itself is an opaque single-shot operation.
package search

import (
	"context"

	"github.com/rs/zerolog/log"

	"fsearch/internal/apperr"
	"fsearch/internal/gemini"
	"fsearch/internal/markdown"
)

// apiKeyRequiredMessage matches the prompt the settings dialog keys off.
const apiKeyRequiredMessage = "API key is required to use this search function. Please provide your Gemini API key in settings."

// Gateway is the contract the API boundary and the interactive client
// depend on; it allows swapping the service for a stub in tests.
type Gateway interface {
	Search(ctx context.Context, query, apiKey string) (*Response, error)
	FollowUp(ctx context.Context, query string, history []ChatHistoryEntry, apiKey string) (*Response, error)
	Model() string
}

// Service implements Gateway against the Gemini API. Construct it once at
// startup and pass it to consumers explicitly.
type Service struct {
	client    *gemini.Client
	formatter *markdown.Formatter
}

// NewService creates a search service
func NewService(client *gemini.Client, formatter *markdown.Formatter) *Service {
	return &Service{
		client:    client,
		formatter: formatter,
	}
}

// Model returns the model name answering queries.
func (s *Service) Model() string {
	return s.client.Model()
}

// Search submits a fresh grounded query.
func (s *Service) Search(ctx context.Context, query, apiKey string) (*Response, error) {
	if query == "" {
		return nil, apperr.MissingParameter("Query is required")
	}
	if apiKey == "" {
		return nil, apperr.MissingParameter(apiKeyRequiredMessage)
	}

	contents := []gemini.Content{
		{Role: gemini.RoleUser, Parts: []gemini.Part{{Text: query}}},
	}

	return s.generate(ctx, query, apiKey, contents)
}

// FollowUp submits a query in the context of prior conversation turns. The
// supplied history is replayed to the model in order, with the assistant
// role translated to the model's own role label.
func (s *Service) FollowUp(ctx context.Context, query string, history []ChatHistoryEntry, apiKey string) (*Response, error) {
	if query == "" {
		return nil, apperr.MissingParameter("Query is required")
	}
	if apiKey == "" {
		return nil, apperr.MissingParameter(apiKeyRequiredMessage)
	}
	if len(history) == 0 {
		return nil, apperr.MissingParameter("Conversation history is required for follow-up questions")
	}

	contents := make([]gemini.Content, 0, len(history)+1)
	for _, entry := range history {
		contents = append(contents, gemini.Content{
			Role:  translateRole(entry.Role),
			Parts: []gemini.Part{{Text: entry.Content}},
		})
	}
	contents = append(contents, gemini.Content{
		Role:  gemini.RoleUser,
		Parts: []gemini.Part{{Text: query}},
	})

	return s.generate(ctx, query, apiKey, contents)
}

// generate performs the single model call and post-processes the result.
// Failures propagate unchanged; there is no retry.
func (s *Service) generate(ctx context.Context, query, apiKey string, contents []gemini.Content) (*Response, error) {
	resp, err := s.client.GenerateContent(ctx, apiKey, contents)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	md := s.formatter.ToMarkdown(text)
	formatted, err := s.formatter.RenderMarkdown(md)
	if err != nil {
		return nil, err
	}

	metadata := resp.Metadata()
	sources := ExtractSources(metadata)

	log.Debug().
		Str("query", query).
		Int("sources", len(sources)).
		Int("turns", len(contents)).
		Msg("search completed")

	return &Response{
		Text:          text,
		Markdown:      md,
		FormattedText: formatted,
		Sources:       sources,
		Metadata:      metadata,
		Raw:           resp,
	}, nil
}

// translateRole maps caller-facing roles to the roles the Gemini API
// expects: "assistant" becomes "model", "user" passes through.
func translateRole(role string) string {
	if role == RoleAssistant {
		return gemini.RoleModel
	}
	return role
}
