package gemini

import "encoding/json"

// --- Request types for the Gemini REST API ---

type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries exactly one of Text, InlineData or FileData.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
	FileData   *FileData   `json:"file_data,omitempty"`
}

// InlineData embeds a small binary payload directly in the request body.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// FileData references a blob previously pushed through the Files API.
type FileData struct {
	FileURI string `json:"file_uri"`
}

type GenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	FrequencyPenalty float64 `json:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty"`
}

// --- Response types ---

// The generate response is parsed leniently: the API omits candidates under
// safety filtering, omits finishReason on some successful short responses,
// and parts are kept as raw JSON because a malformed first part must read as
// "no text" rather than fail the whole decode.

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      CandidateContent `json:"content"`
	FinishReason *string          `json:"finishReason"`
}

type CandidateContent struct {
	Parts []json.RawMessage `json:"parts"`
}

type uploadResponse struct {
	File struct {
		URI string `json:"uri"`
	} `json:"file"`
}

// ModelResponse is the distilled result of one generation round trip. Either
// field may be absent.
type ModelResponse struct {
	Text         *string
	FinishReason *string
}
