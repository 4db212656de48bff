// Package transcribe defines the recognition-model contract and the HTTP
// client used to reach a Whisper-compatible transcription service.
package transcribe

import (
	"context"
	"strings"
)

// Word is a single recognized word with its timing in seconds from the start
// of the audio.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a continuous speech interval as reported by the model.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Result is the complete output of a transcription call.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Words returns all word-level entries across segments, in order.
func (r *Result) Words() []Word {
	var words []Word
	for _, seg := range r.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// CleanText returns the whitespace-trimmed full text.
func (r *Result) CleanText() string { return strings.TrimSpace(r.Text) }

// Options controls a single transcription call.
type Options struct {
	// WordTimestamps requests word-level timing for the whole file. Required
	// by the sentence and paragraph segmentation strategies.
	WordTimestamps bool
	// Language optionally pins the recognition language (e.g. "de").
	Language string
}

// Transcriber is the recognition-model contract. Implementations are
// long-lived: the model or connection is set up once at process start and
// shared read-only across sequential pipeline calls. Failures are returned
// as errors and never panic.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string, opts Options) (*Result, error)
}
