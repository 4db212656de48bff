package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBaseURLRequired is returned when the client is constructed without a
// service URL.
var ErrBaseURLRequired = errors.New("transcribe: base URL is required")

const defaultModel = "whisper-1"

// WhisperClient talks to an OpenAI-compatible transcription endpoint
// (POST /v1/audio/transcriptions with verbose_json output).
type WhisperClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// WhisperOption configures a WhisperClient.
type WhisperOption func(*WhisperClient)

// WithModel selects the model name sent with each request.
func WithModel(model string) WhisperOption {
	return func(c *WhisperClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) WhisperOption {
	return func(c *WhisperClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WhisperOption {
	return func(c *WhisperClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewWhisperClient creates a client for the transcription service at baseURL.
func NewWhisperClient(baseURL string, opts ...WhisperOption) (*WhisperClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	c := &WhisperClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// whisperResponse mirrors the verbose_json payload. Servers differ in where
// they attach word timing: some nest words under segments, others return a
// flat top-level list.
type whisperResponse struct {
	Text     string    `json:"text"`
	Words    []Word    `json:"words"`
	Segments []Segment `json:"segments"`
}

// Transcribe implements Transcriber by uploading the WAV file as multipart
// form data and decoding the verbose_json response.
func (c *WhisperClient) Transcribe(ctx context.Context, wavPath string, opts Options) (*Result, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}

	fields := map[string]string{
		"model":           c.model,
		"response_format": "verbose_json",
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if opts.WordTimestamps {
		if err := mw.WriteField("timestamp_granularities[]", "word"); err != nil {
			return nil, fmt.Errorf("write field timestamp_granularities: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var wr whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("transcription completed",
		slog.String("file", filepath.Base(wavPath)),
		slog.Duration("took", time.Since(start)),
		slog.Int("segments", len(wr.Segments)),
	)

	return normalizeResponse(wr), nil
}

// normalizeResponse maps the service payload onto the Result contract,
// folding a flat word list into a single segment when the server does not
// nest words under segments.
func normalizeResponse(wr whisperResponse) *Result {
	res := &Result{Text: wr.Text, Segments: wr.Segments}

	hasNestedWords := false
	for _, seg := range wr.Segments {
		if len(seg.Words) > 0 {
			hasNestedWords = true
			break
		}
	}
	if !hasNestedWords && len(wr.Words) > 0 {
		words := wr.Words
		res.Segments = []Segment{{
			Text:  wr.Text,
			Start: words[0].Start,
			End:   words[len(words)-1].End,
			Words: words,
		}}
	}
	return res
}

var _ Transcriber = (*WhisperClient)(nil)
