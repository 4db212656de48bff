package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// supportedExtensions is the fixed set of container formats the pipeline accepts.
var supportedExtensions = map[string]bool{
	".opus": true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
}

// SupportedExtension reports whether the file extension (with or without a
// leading dot, any case) is accepted by the normalizer.
func SupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return supportedExtensions[ext]
}

// ErrUnsupportedFormat is returned when the input extension is not in the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeError wraps an underlying ffmpeg decode/export failure. It never
// escapes the normalizer as a panic; callers get it as a regular error.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Normalizer converts supported audio containers to 16 kHz mono WAV using
// the ffmpeg CLI.
type Normalizer struct {
	ffmpegPath string
	sampleRate int
	logger     *slog.Logger
}

// NewNormalizer creates a Normalizer. If ffmpegPath is empty, "ffmpeg" is
// resolved from PATH.
func NewNormalizer(ffmpegPath string, logger *slog.Logger) *Normalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{ffmpegPath: ffmpegPath, sampleRate: TargetSampleRate, logger: logger}
}

// Normalize converts inputPath to a 16 kHz mono WAV file written beside the
// input. WAV inputs are passed through unchanged (converted=false), even if
// their sample rate or channel count differ from the target.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (wavPath string, converted bool, err error) {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if !supportedExtensions[ext] {
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if ext == ".wav" {
		return inputPath, false, nil
	}

	wavPath = strings.TrimSuffix(inputPath, ext) + ".wav"

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ar", strconv.Itoa(n.sampleRate),
		"-ac", "1",
		wavPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		n.logger.Error("audio conversion failed",
			slog.String("input", inputPath),
			slog.String("error", err.Error()),
			slog.String("ffmpeg_output", stderr.String()),
		)
		return "", false, &DecodeError{Path: inputPath, Err: err}
	}

	return wavPath, true, nil
}
