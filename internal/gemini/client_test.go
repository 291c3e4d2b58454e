package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsearch/internal/apperr"
)

func testConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.9, TopP: 1, TopK: 1, MaxOutputTokens: 2048}
}

func TestGenerateContentRequiresAPIKey(t *testing.T) {
	client := NewClient("http://localhost:0", "gemini-2.0-flash-exp", time.Second, testConfig())

	_, err := client.GenerateContent(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindMissingParameter, apperr.KindOf(err))
}

func TestGenerateContentDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash-exp:generateContent")
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "part one "}, {"text": "part two"}]},
				"groundingMetadata": {
					"groundingChunks": [{"web": {"uri": "https://x.example", "title": "X"}}],
					"groundingSupports": [{"segment": {"text": "part one", "startIndex": 0, "endIndex": 8}, "groundingChunkIndices": [0]}]
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "gemini-2.0-flash-exp", time.Second, testConfig())
	resp, err := client.GenerateContent(context.Background(), "secret", []Content{
		{Role: RoleUser, Parts: []Part{{Text: "hello"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "part one part two", resp.Text())
	md := resp.Metadata()
	require.NotNil(t, md)
	require.Len(t, md.GroundingChunks, 1)
	assert.Equal(t, "https://x.example", md.GroundingChunks[0].Web.URI)
	require.Len(t, md.GroundingSupports, 1)
	assert.Equal(t, []int{0}, md.GroundingSupports[0].GroundingChunkIndices)
}

func TestGenerateContentClassifiesCredentialFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", 403, `{"error":{"code":403,"message":"API key not valid. Please pass a valid API key.","status":"PERMISSION_DENIED"}}`},
		{"unauthorized", 401, `{"error":{"code":401,"message":"Request had invalid credentials.","status":"UNAUTHENTICATED"}}`},
		{"malformed key", 400, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "gemini-2.0-flash-exp", time.Second, testConfig())
			_, err := client.GenerateContent(context.Background(), "bad", nil)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
		})
	}
}

func TestGenerateContentOtherFailuresAreUnexpected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "gemini-2.0-flash-exp", time.Second, testConfig())
	_, err := client.GenerateContent(context.Background(), "key", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Resource has been exhausted")
}

func TestResponseTextEmptyCandidates(t *testing.T) {
	var resp GenerateContentResponse
	assert.Equal(t, "", resp.Text())
	assert.Nil(t, resp.Metadata())
}
