package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/dataset"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/segment"
	"github.com/voiceforge/ttsdataset-api/internal/textnorm"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

// Options selects the segmentation mode and quality profile for one call.
type Options struct {
	Mode    segment.Mode
	Profile quality.Profile
}

// Pipeline processes input files into the dataset. It is synchronous and
// single-threaded per invocation; the transcriber handle is injected once at
// construction and shared read-only across sequential calls.
type Pipeline struct {
	normalizer  *audio.Normalizer
	analyzer    *quality.Analyzer
	transcriber transcribe.Transcriber
	acc         *dataset.Accumulator
	logger      *slog.Logger

	// newStrategy is swappable for tests asserting the gate short-circuits
	// segmentation.
	newStrategy func(segment.Mode, transcribe.Transcriber) (segment.Strategy, error)
}

// New creates a Pipeline.
func New(
	normalizer *audio.Normalizer,
	analyzer *quality.Analyzer,
	transcriber transcribe.Transcriber,
	acc *dataset.Accumulator,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer:  normalizer,
		analyzer:    analyzer,
		transcriber: transcriber,
		acc:         acc,
		logger:      logger,
		newStrategy: segment.NewStrategy,
	}
}

// ProcessFile runs one input file through the pipeline. The returned Outcome
// is the per-file result; a non-nil error signals a file-system fault that
// is fatal for the whole batch (sink or layout writes failing).
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath string, opts Options) (Outcome, error) {
	log := p.logger.With(slog.String("file", filepath.Base(inputPath)))

	wavPath, converted, err := p.normalizer.Normalize(ctx, inputPath)
	if err != nil {
		log.Warn("normalization failed", slog.String("error", err.Error()))
		return failure("Audio conversion failed."), nil
	}
	r := newRun()

	// The pipeline owns the intermediate waveform file on every exit path.
	// A source that was already WAV is never deleted.
	cleanup := func() {
		if converted {
			if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
				log.Warn("failed to remove intermediate file", slog.String("error", err.Error()))
			}
		}
	}

	wf, err := audio.DecodeWAV(wavPath)
	if err != nil {
		log.Warn("waveform decode failed", slog.String("error", err.Error()))
		cleanup()
		return failure("Audio conversion failed."), nil
	}

	metrics := p.analyzer.Analyze(wf)
	if reasons := gateReasons(metrics, opts.Profile); len(reasons) > 0 {
		_ = r.advance(StateRejected)
		cleanup()
		msg := "Quality check failed: " + strings.Join(reasons, "; ")
		log.Info("file rejected by quality gate", slog.String("reasons", strings.Join(reasons, "; ")))
		return failure(msg), nil
	}
	if err := r.advance(StateQualityChecked); err != nil {
		cleanup()
		return Outcome{}, err
	}

	strategy, err := p.newStrategy(opts.Mode, p.transcriber)
	if err != nil {
		cleanup()
		return failure(err.Error()), nil
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	namer, err := p.acc.NewNamer(base)
	if err != nil {
		cleanup()
		return Outcome{}, fmt.Errorf("prepare clip naming: %w", err)
	}

	clips, err := strategy.Segment(ctx, segment.Request{
		Waveform:   wf,
		SourcePath: wavPath,
		Namer:      namer,
	})
	if err != nil {
		cleanup()
		log.Warn("segmentation failed", slog.String("error", err.Error()))
		return failure("Transcription failed: " + err.Error()), nil
	}
	if len(clips) == 0 {
		_ = r.advance(StateEmpty)
		cleanup()
		return failure("No segments could be generated."), nil
	}
	if err := r.advance(StateSegmented); err != nil {
		cleanup()
		return Outcome{}, err
	}
	if err := r.advance(StateTranscribed); err != nil {
		cleanup()
		return Outcome{}, err
	}

	for _, c := range clips {
		c.Quality = metrics
		c.CleanTranscript = textnorm.Clean(c.Transcript)
	}

	if err := p.acc.AppendLabels(clips); err != nil {
		cleanup()
		return Outcome{}, err
	}
	if err := p.acc.AppendDetailed(clips); err != nil {
		cleanup()
		return Outcome{}, err
	}

	if err := r.advance(StateFinalized); err != nil {
		cleanup()
		return Outcome{}, err
	}
	cleanup()

	log.Info("file processed",
		slog.Int("clips", len(clips)),
		slog.String("mode", string(opts.Mode)),
	)
	return success(p.acc.LabelPath()), nil
}

// ProcessBatch processes files strictly sequentially in the given order.
// Per-file failures yield error outcomes and the batch continues; only
// file-system faults abort it.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputPaths []string, opts Options) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(inputPaths))
	for _, path := range inputPaths {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := p.ProcessFile(ctx, path, opts)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// gateReasons applies the quality gating policy: reject when the SNR is
// defined and below the profile threshold, or when clipping exceeds the
// limit. An undefined SNR is an absence, not a zero, and does not reject.
func gateReasons(m quality.Metrics, profile quality.Profile) []string {
	var reasons []string
	if m.SNRDefined() && *m.SNRdB < profile.MinSNRdB() {
		reasons = append(reasons, fmt.Sprintf("Low SNR: %.1f dB (minimum %.0f dB)", *m.SNRdB, profile.MinSNRdB()))
	}
	if m.ClippingPct > quality.MaxClippingPct {
		reasons = append(reasons, fmt.Sprintf("Clipping: %.2f%% (maximum %.2f%%)", m.ClippingPct, quality.MaxClippingPct))
	}
	return reasons
}
