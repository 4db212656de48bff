package segment

import (
	"context"
	"fmt"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

const (
	// defaultMinSilenceMs is the shortest silence run that splits the file.
	defaultMinSilenceMs = 500
	// defaultKeepSilenceMs is the padding retained around each kept slice.
	defaultKeepSilenceMs = 250
	// defaultThreshOffsetDB is how far below the file's average loudness a
	// window must fall to count as silence.
	defaultThreshOffsetDB = 14.0
)

// SilenceStrategy partitions the waveform at silence gaps and transcribes
// every resulting clip independently. It carries no sentence or paragraph
// semantics.
type SilenceStrategy struct {
	tr             transcribe.Transcriber
	MinSilenceMs   int
	KeepSilenceMs  int
	ThreshOffsetDB float64
}

// NewSilenceStrategy creates a SilenceStrategy with the default thresholds.
func NewSilenceStrategy(tr transcribe.Transcriber) *SilenceStrategy {
	return &SilenceStrategy{
		tr:             tr,
		MinSilenceMs:   defaultMinSilenceMs,
		KeepSilenceMs:  defaultKeepSilenceMs,
		ThreshOffsetDB: defaultThreshOffsetDB,
	}
}

// Segment implements Strategy. A fully silent waveform yields zero clips.
func (s *SilenceStrategy) Segment(ctx context.Context, req Request) ([]*Clip, error) {
	wf := req.Waveform
	threshold := wf.DBFS() - s.ThreshOffsetDB
	ranges := audio.DetectNonSilent(wf, s.MinSilenceMs, threshold)

	totalMs := wf.Millis()
	var clips []*Clip
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		padded := r.Pad(s.KeepSilenceMs, totalMs)
		slice := wf.Slice(padded.StartMs, padded.EndMs)
		if len(slice.Samples) == 0 {
			continue
		}

		name, path, err := req.Namer.Next()
		if err != nil {
			return nil, fmt.Errorf("allocate clip name: %w", err)
		}
		if err := audio.EncodeWAV(path, slice); err != nil {
			return nil, fmt.Errorf("export clip %s: %w", name, err)
		}

		clip := &Clip{
			Filename:  name,
			AudioPath: path,
			StartTime: float64(padded.StartMs) / 1000,
			EndTime:   float64(padded.EndMs) / 1000,
			Duration:  float64(padded.EndMs-padded.StartMs) / 1000,
		}

		res, err := s.tr.Transcribe(ctx, path, transcribe.Options{})
		if err != nil {
			clip.AddWarning(WarnTranscription, err.Error())
		} else {
			clip.Transcript = res.CleanText()
		}

		clips = append(clips, clip)
	}
	return clips, nil
}

var _ Strategy = (*SilenceStrategy)(nil)
