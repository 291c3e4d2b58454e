package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fsearch/internal/apperr"
)

// Client handles communication with the Generative Language API
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	genConfig  GenerationConfig
}

// NewClient creates a new Gemini client
func NewClient(baseURL, model string, timeout time.Duration, genConfig GenerationConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		genConfig: genConfig,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// GenerateContent sends a single generateContent request with search
// grounding enabled and returns the decoded response. The call is atomic:
// there is no retry, and any failure propagates to the caller.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, contents []Content) (*GenerateContentResponse, error) {
	if apiKey == "" {
		return nil, apperr.MissingParameter("API key is required to use this search function. Please provide your Gemini API key in settings.")
	}

	req := GenerateContentRequest{
		Contents:         contents,
		Tools:            []Tool{{GoogleSearch: &GoogleSearch{}}},
		GenerationConfig: &c.genConfig,
	}

	// Marshal request to JSON
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to marshal request")
	}

	// Create HTTP request
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create request")
	}

	// Set headers
	httpReq.Header.Set("Content-Type", "application/json")

	// Execute request
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != 200 {
		return nil, c.errorFromStatus(resp)
	}

	// Parse response
	var genResp GenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, apperr.Wrap(err, "failed to parse response")
	}

	return &genResp, nil
}

// errorFromStatus converts a non-200 API response into a tagged error.
// Credential failures are classified here, at the boundary, so the API
// layer never has to inspect message text.
func (c *Client) errorFromStatus(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope apiError
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	cause := fmt.Errorf("Gemini returned status %d: %s", resp.StatusCode, message)

	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return apperr.InvalidCredential(message, cause)
	case resp.StatusCode == 400 && strings.Contains(envelope.Error.Status, "INVALID_ARGUMENT") && strings.Contains(message, "API key"):
		// The API reports a malformed key as a generic invalid argument.
		return apperr.InvalidCredential(message, cause)
	default:
		return apperr.Wrap(cause, "generate content failed")
	}
}
