package gemini

import "strings"

// Role labels used by the Generative Language API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is a single piece of content within a conversation turn.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content represents one conversation turn
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Tool enables model capabilities; only search grounding is used here.
type Tool struct {
	GoogleSearch *GoogleSearch `json:"google_search,omitempty"`
}

// GoogleSearch turns on web-search grounding for a request.
type GoogleSearch struct{}

// GenerationConfig controls sampling parameters
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateContentRequest is the request body for the generateContent endpoint
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	Tools            []Tool            `json:"tools,omitempty"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// WebSource identifies a cited web page.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingChunk is one candidate cited source, referenced by index from
// grounding supports.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// TextSegment is a span of the answer text.
type TextSegment struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Text       string `json:"text"`
}

// GroundingSupport attributes a span of answer text to grounding chunks.
type GroundingSupport struct {
	Segment               TextSegment `json:"segment"`
	GroundingChunkIndices []int       `json:"groundingChunkIndices"`
	ConfidenceScores      []float64   `json:"confidenceScores,omitempty"`
}

// GroundingMetadata is the citation data returned alongside a grounded answer.
// It is decoded once here at the API boundary so downstream consumers can
// assume a validated shape.
type GroundingMetadata struct {
	GroundingChunks   []GroundingChunk   `json:"groundingChunks"`
	GroundingSupports []GroundingSupport `json:"groundingSupports"`
	WebSearchQueries  []string           `json:"webSearchQueries,omitempty"`
}

// Candidate is one model answer within a response
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GenerateContentResponse is the response body from the generateContent endpoint
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// Metadata returns the grounding metadata of the first candidate, or nil
// when the response carries none.
func (r *GenerateContentResponse) Metadata() *GroundingMetadata {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].GroundingMetadata
}

// apiError is the error envelope returned by the API on failure
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
