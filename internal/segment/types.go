// Package segment cuts a canonical waveform into labeled clips using one of
// three interchangeable strategies: silence-gap detection, transcript-driven
// sentence grouping and transcript-driven paragraph grouping.
package segment

import (
	"context"
	"strings"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
)

// WarningKind classifies a non-fatal issue recorded on a segment.
type WarningKind string

const (
	// WarnTranscription marks a recognition-model failure for this clip. The
	// clip is kept with an empty transcript and the pipeline continues.
	WarnTranscription WarningKind = "transcription"
)

// Warning is a typed non-fatal issue attached to a segment.
type Warning struct {
	Kind    WarningKind
	Message string
}

// Clip is one exported audio slice plus its transcript and metadata. A clip
// is mutated by the transcription and quality-merge steps and becomes
// immutable once written to the dataset sinks.
type Clip struct {
	// Filename is the clip's name within the dataset's wavs directory,
	// unique across the whole dataset.
	Filename string
	// AudioPath is the absolute path of the exported WAV file.
	AudioPath string
	// Transcript is the raw recognized text for the clip.
	Transcript string
	// CleanTranscript is the training-ready label, filled by the pipeline.
	CleanTranscript string
	// StartTime, EndTime and Duration are seconds relative to the source file.
	StartTime float64
	EndTime   float64
	Duration  float64
	// Warnings collects typed non-fatal issues.
	Warnings []Warning
	// Quality is the source file's metrics, copied onto every clip.
	Quality quality.Metrics
}

// AddWarning appends a typed warning to the clip.
func (c *Clip) AddWarning(kind WarningKind, message string) {
	c.Warnings = append(c.Warnings, Warning{Kind: kind, Message: message})
}

// ErrorSummary renders the warnings as a single human-readable string for
// the detailed metadata sink. Empty when the clip had no issues.
func (c *Clip) ErrorSummary() string {
	if len(c.Warnings) == 0 {
		return ""
	}
	parts := make([]string, len(c.Warnings))
	for i, w := range c.Warnings {
		parts[i] = string(w.Kind) + ": " + w.Message
	}
	return strings.Join(parts, "; ")
}

// ClipNamer allocates the next unique clip filename within a dataset
// directory. Implementations must never hand out a name that collides with
// an existing file.
type ClipNamer interface {
	Next() (filename, path string, err error)
}

// Request carries everything a strategy needs to segment one source file.
type Request struct {
	// Waveform is the decoded canonical waveform.
	Waveform *audio.Waveform
	// SourcePath is the normalized WAV on disk, used for whole-file
	// transcription.
	SourcePath string
	// Namer allocates clip filenames.
	Namer ClipNamer
}

// Strategy is one segmentation mode. Implementations return the produced
// clips in source order; zero clips is a valid result and means the file
// yielded nothing usable.
type Strategy interface {
	Segment(ctx context.Context, req Request) ([]*Clip, error)
}
