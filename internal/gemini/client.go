// Package gemini implements the summarization client: it turns an audio
// payload and a prompt into accepted Markdown text from the Gemini API,
// riding out rate limits, abnormal finish reasons and degenerate output.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/shee/briefcast/internal/textcheck"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
	audioMIMEType  = "audio/mp3"

	// Payloads at or above this size are pushed through the Files API and
	// referenced by URI; the generation endpoint rejects large inline bodies.
	inlineLimit = 20 * 1024 * 1024

	// Transport loop: bounded retries on 429/503 with exponential backoff.
	maxTransportAttempts = 5
	// Content loop: bounded regenerations on bad finish reasons or
	// repetitive output, with escalating temperature.
	maxContentAttempts = 3

	baseTemperature    = 0.7
	temperatureStep    = 0.3
	temperatureCeiling = 2.0

	// Audio uploads and long generations are slow; match the generous
	// timeout the service itself works against.
	requestTimeout = 300 * time.Second

	defaultTopP            = 0.95
	defaultTopK            = 40
	defaultMaxOutputTokens = 8192
)

// Config configures a Client. APIKey is required; everything else has a
// sensible default. UploadURL and GenerateURL exist so tests can point the
// client at a local server.
type Config struct {
	APIKey      string
	Model       string
	UploadURL   string
	GenerateURL string
	Debug       bool

	// Notifier receives human-readable diagnostics (backoffs, regenerations,
	// withheld responses). Advisory only; may be nil.
	Notifier func(string)

	// HTTPClient overrides the default transport.
	HTTPClient *http.Client

	// Degenerate judges whether generated text is a repetition loop.
	// Defaults to textcheck.IsRepetitive.
	Degenerate func(string) bool
}

// Client talks to the Gemini generateContent and Files endpoints. It is
// stateless across calls; each SummarizeAudio call owns its retry counters.
type Client struct {
	apiKey     string
	model      string
	uploadURL  string
	genURL     string
	debug      bool
	notifier   func(string)
	httpClient *http.Client
	degenerate func(string) bool

	// seams for tests
	sleep  func(time.Duration)
	jitter func() float64
}

// New builds a Client. It fails fast when the API key is missing, before any
// network activity.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key not configured (set GEMINI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	uploadURL := cfg.UploadURL
	if uploadURL == "" {
		uploadURL = defaultBaseURL + "/upload/v1beta/files"
	}
	genURL := cfg.GenerateURL
	if genURL == "" {
		genURL = fmt.Sprintf("%s/v1beta/models/%s:generateContent", defaultBaseURL, model)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	degenerate := cfg.Degenerate
	if degenerate == nil {
		degenerate = textcheck.IsRepetitive
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		uploadURL:  uploadURL,
		genURL:     genURL,
		debug:      cfg.Debug,
		notifier:   cfg.Notifier,
		httpClient: httpClient,
		degenerate: degenerate,
		sleep:      time.Sleep,
		jitter:     rand.Float64,
	}, nil
}

// SummarizeAudio sends the audio bytes and prompt to Gemini and returns the
// accepted summary.
//
// ok is false when the service withheld content (safety filtering, empty
// response) or when all quality regenerations were exhausted; the caller
// should skip the item and move on. A non-nil error means the call failed at
// the transport level (non-retryable status, retries exhausted, upload
// failure) and the item may be worth retrying on a later run.
func (c *Client) SummarizeAudio(ctx context.Context, audio []byte, prompt string) (string, bool, error) {
	audioParts, err := c.buildAudioParts(ctx, audio)
	if err != nil {
		return "", false, err
	}
	parts := append(audioParts, Part{Text: prompt})

	for attempt := 0; attempt < maxContentAttempts; attempt++ {
		reqBody := GenerateRequest{
			Contents:         []Content{{Role: "user", Parts: parts}},
			GenerationConfig: c.generationConfig(attempt),
		}

		resp, err := c.generate(ctx, reqBody)
		if err != nil {
			return "", false, err
		}

		// No text at all means the service withheld content. That is
		// terminal: regenerating a safety block just burns quota.
		if resp.Text == nil {
			c.notify("Gemini 応答に本文がありませんでした (parts missing)")
			return "", false, nil
		}

		if !finishAcceptable(resp.FinishReason) {
			c.notify(fmt.Sprintf("Gemini finishReason=%s → 再生成 (%d/%d)",
				*resp.FinishReason, attempt+1, maxContentAttempts))
			continue
		}

		if c.degenerate(*resp.Text) {
			c.notify(fmt.Sprintf("Gemini 出力が反復ループ → 再生成 (%d/%d)",
				attempt+1, maxContentAttempts))
			continue
		}

		return *resp.Text, true, nil
	}

	c.notify(fmt.Sprintf("Gemini 再生成 %d 回で諦めました (retry exhausted)", maxContentAttempts))
	return "", false, nil
}

// finishAcceptable reports whether a finish reason allows the text to be
// used. An absent reason is accepted: some endpoints omit the field on
// successful short responses, and treating that as a failure would retry
// perfectly good output.
func finishAcceptable(reason *string) bool {
	return reason == nil || *reason == "STOP" || *reason == "MAX_TOKENS"
}

// generationConfig escalates temperature across regeneration attempts,
// clamped to a fixed ceiling.
func (c *Client) generationConfig(attempt int) *GenerationConfig {
	temperature := baseTemperature + float64(attempt)*temperatureStep
	if temperature > temperatureCeiling {
		temperature = temperatureCeiling
	}
	return &GenerationConfig{
		Temperature:     temperature,
		TopP:            defaultTopP,
		TopK:            defaultTopK,
		MaxOutputTokens: defaultMaxOutputTokens,
	}
}

// buildAudioParts embeds the audio inline when it is small enough, otherwise
// uploads it and references the returned file URI.
func (c *Client) buildAudioParts(ctx context.Context, audio []byte) ([]Part, error) {
	if len(audio) < inlineLimit {
		return []Part{{InlineData: &InlineData{
			MimeType: audioMIMEType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}}}, nil
	}

	fileURI, err := c.uploadAudio(ctx, audio)
	if err != nil {
		return nil, err
	}
	return []Part{{FileData: &FileData{FileURI: fileURI}}}, nil
}

// uploadAudio pushes raw audio bytes through the Files API and returns the
// opaque file URI. Upload failures are fatal for the call.
func (c *Client) uploadAudio(ctx context.Context, audio []byte) (string, error) {
	url := c.uploadURL + "?key=" + c.apiKey + "&uploadType=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", audioMIMEType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), 300)}
	}

	var up uploadResponse
	if err := json.Unmarshal(body, &up); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	if up.File.URI == "" {
		return "", errors.New("upload response missing file.uri")
	}
	return up.File.URI, nil
}

// generate performs one generation exchange, retrying 429/503 with
// exponential backoff plus jitter. Any other non-2xx status is fatal
// immediately.
func (c *Client) generate(ctx context.Context, reqBody GenerateRequest) (ModelResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return ModelResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	url := c.genURL + "?key=" + c.apiKey

	for attempt := 0; attempt < maxTransportAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return ModelResponse{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return ModelResponse{}, fmt.Errorf("gemini request failed: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return ModelResponse{}, fmt.Errorf("read response: %w", err)
		}

		if c.debug {
			slog.Debug("gemini response", "status", resp.StatusCode, "body", truncate(string(body), 300))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			wait := c.backoff(attempt)
			c.notify(fmt.Sprintf("Gemini %d → %.1fs wait", resp.StatusCode, wait.Seconds()))
			c.sleep(wait)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return ModelResponse{}, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), 300)}
		}

		return parseResponse(body), nil
	}

	return ModelResponse{}, fmt.Errorf("gemini API failed after %d retries", maxTransportAttempts)
}

// backoff returns 2^attempt seconds plus up to three seconds of jitter.
func (c *Client) backoff(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt)) + c.jitter()*3
	return time.Duration(seconds * float64(time.Second))
}

// parseResponse extracts text and finish reason without ever failing: absent
// candidates, absent content, absent parts, a non-object first part or an
// unparseable body all read as "no text".
func parseResponse(body []byte) ModelResponse {
	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return ModelResponse{}
	}
	if len(genResp.Candidates) == 0 {
		return ModelResponse{}
	}

	cand := genResp.Candidates[0]
	out := ModelResponse{FinishReason: cand.FinishReason}

	if len(cand.Content.Parts) == 0 {
		return out
	}
	var first struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(cand.Content.Parts[0], &first); err != nil {
		return out
	}
	out.Text = first.Text
	return out
}

// notify forwards a diagnostic to the configured sink. The sink is advisory
// only; a panicking sink must not destabilize the summarization flow.
func (c *Client) notify(msg string) {
	if c.notifier == nil {
		return
	}
	defer func() { _ = recover() }()
	c.notifier(msg)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
