package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/voiceforge/ttsdataset-api/internal/segment"
)

const (
	// LabelFileName is the pipe-separated label file, one line per clip.
	LabelFileName = "metadata.csv"
	// DetailedFileName is the per-clip quality report.
	DetailedFileName = "metadata_detailed.csv"
	// WavsDirName holds the exported clips.
	WavsDirName = "wavs"
)

// detailedColumns is the fixed column order of the detailed sink. The header
// is written exactly once, when the file is first created.
var detailedColumns = []string{
	"segment_filename",
	"transcript",
	"start_time",
	"end_time",
	"duration",
	"error",
	"snr_db",
	"clipping_percentage",
	"dynamic_range_db",
	"spectral_centroid",
}

// Accumulator appends clips and metadata rows into one growing dataset
// directory. Both sinks are append-only and safe to call repeatedly across
// many files; the on-disk state is the only state there is.
type Accumulator struct {
	root   string
	logger *slog.Logger
}

// NewAccumulator creates the dataset layout (root and wavs directories) if
// needed and returns an accumulator rooted there.
func NewAccumulator(root string, logger *slog.Logger) (*Accumulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(root, WavsDirName), 0750); err != nil {
		return nil, fmt.Errorf("create dataset layout: %w", err)
	}
	return &Accumulator{root: root, logger: logger}, nil
}

// Root returns the dataset root directory.
func (a *Accumulator) Root() string { return a.root }

// WavsDir returns the clip directory.
func (a *Accumulator) WavsDir() string { return filepath.Join(a.root, WavsDirName) }

// LabelPath returns the path of the label sink.
func (a *Accumulator) LabelPath() string { return filepath.Join(a.root, LabelFileName) }

// DetailedPath returns the path of the detailed metrics sink.
func (a *Accumulator) DetailedPath() string { return filepath.Join(a.root, DetailedFileName) }

// NewNamer returns a clip namer for the given source base name, scoped to
// this dataset's wavs directory.
func (a *Accumulator) NewNamer(base string) (segment.ClipNamer, error) {
	return NewNamer(a.WavsDir(), base)
}

// AppendLabels appends one `filename|cleaned_transcript` line per clip with
// a non-empty cleaned transcript. Clips with empty labels are silently
// dropped from this sink; they still land in the detailed sink.
func (a *Accumulator) AppendLabels(clips []*segment.Clip) error {
	f, err := os.OpenFile(a.LabelPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open label sink: %w", err)
	}
	defer f.Close()

	written := 0
	for _, c := range clips {
		if c.CleanTranscript == "" {
			continue
		}
		if _, err := fmt.Fprintf(f, "%s|%s\n", c.Filename, c.CleanTranscript); err != nil {
			return fmt.Errorf("append label: %w", err)
		}
		written++
	}
	a.logger.Debug("labels appended",
		slog.Int("written", written),
		slog.Int("dropped_empty", len(clips)-written),
	)
	return f.Close()
}

// AppendDetailed appends one row per clip to the detailed sink, writing the
// header first if the file does not exist yet. Missing fields default to
// empty strings rather than failing the write.
func (a *Accumulator) AppendDetailed(clips []*segment.Clip) error {
	if err := a.ensureDetailedHeader(); err != nil {
		return err
	}

	f, err := os.OpenFile(a.DetailedPath(), os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open detailed sink: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, c := range clips {
		if err := w.Write(detailedRow(c)); err != nil {
			return fmt.Errorf("append detailed row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush detailed sink: %w", err)
	}
	return f.Close()
}

// ensureDetailedHeader writes the header exactly once, decided by the sink
// file's existence at call time.
func (a *Accumulator) ensureDetailedHeader() error {
	if _, err := os.Stat(a.DetailedPath()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat detailed sink: %w", err)
	}

	f, err := os.OpenFile(a.DetailedPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create detailed sink: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(detailedColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}
	return f.Close()
}

func detailedRow(c *segment.Clip) []string {
	snr := ""
	if c.Quality.SNRDefined() {
		snr = formatFloat(*c.Quality.SNRdB)
	}
	return []string{
		c.Filename,
		c.Transcript,
		formatFloat(c.StartTime),
		formatFloat(c.EndTime),
		formatFloat(c.Duration),
		c.ErrorSummary(),
		snr,
		formatFloat(c.Quality.ClippingPct),
		formatFloat(c.Quality.DynamicRangeDB),
		formatFloat(c.Quality.SpectralCentroid),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
