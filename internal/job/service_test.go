package job

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/dataset"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/segment"
	"github.com/voiceforge/ttsdataset-api/internal/storage"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

type fakeTranscriber struct {
	text string
}

func (f *fakeTranscriber) Transcribe(context.Context, string, transcribe.Options) (*transcribe.Result, error) {
	return &transcribe.Result{Text: f.text}, nil
}

func newTestService(t *testing.T) (*BuildDatasetService, *storage.LocalStorage, *dataset.Accumulator) {
	t.Helper()
	root := t.TempDir()

	store, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	acc, err := dataset.NewAccumulator(filepath.Join(root, "tts_dataset"), nil)
	require.NoError(t, err)

	pipe := pipeline.New(
		audio.NewNormalizer("", nil),
		quality.NewAnalyzer(nil),
		&fakeTranscriber{text: "Hallo Welt"},
		acc,
		nil,
	)
	svc := NewBuildDatasetService(NewMemoryRepository(), pipe, acc, store, nil)
	return svc, store, acc
}

func writeSpeechLike(t *testing.T, path string) {
	t.Helper()
	rate := audio.TargetSampleRate
	var samples []float64
	appendTone := func(durationMs int) {
		n := durationMs * rate / 1000
		for i := 0; i < n; i++ {
			samples = append(samples, 0.5*math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		}
	}
	appendTone(1000)
	samples = append(samples, make([]float64, 600*rate/1000)...)
	appendTone(1000)
	require.NoError(t, audio.EncodeWAV(path, &audio.Waveform{Samples: samples, SampleRate: rate}))
}

func TestCreateJob(t *testing.T) {
	svc, _, _ := newTestService(t)

	j, err := svc.CreateJob(context.Background(), []string{"/tmp/a.wav"}, segment.ModeSilence, quality.ProfileDefault)
	require.NoError(t, err)
	assert.Equal(t, StatusInQueue, j.Status)

	found, err := svc.GetJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, found.ID)
}

func TestCreateJobNoInputs(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateJob(context.Background(), nil, segment.ModeSilence, quality.ProfileDefault)
	assert.Error(t, err)
}

func TestProcessBatchMixedOutcomes(t *testing.T) {
	svc, store, acc := newTestService(t)
	ctx := context.Background()

	good := filepath.Join(store.UploadDir(), "speech.wav")
	writeSpeechLike(t, good)
	bad := filepath.Join(store.UploadDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("not audio"), 0o644))

	j, err := svc.CreateJob(ctx, []string{good, bad}, segment.ModeSilence, quality.ProfileDefault)
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, j.ID))

	done, err := svc.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress())

	require.Len(t, done.Results, 2)
	assert.Equal(t, "speech.wav", done.Results[0].Filename)
	assert.Equal(t, pipeline.StatusSuccess, done.Results[0].Outcome.Status)
	assert.Equal(t, "notes.txt", done.Results[1].Filename)
	assert.Equal(t, pipeline.StatusError, done.Results[1].Outcome.Status)

	// The archive exists and the uploads are cleaned up.
	assert.Equal(t, acc.Root()+".zip", done.ArchivePath)
	_, err = os.Stat(done.ArchivePath)
	assert.NoError(t, err)
	assert.Empty(t, done.ArchiveURL)

	_, err = os.Stat(good)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessUnknownJob(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.Process(context.Background(), "batch-missing"), ErrJobNotFound)
}

func TestProcessCancelledContextFailsBatch(t *testing.T) {
	svc, store, _ := newTestService(t)

	src := filepath.Join(store.UploadDir(), "speech.wav")
	writeSpeechLike(t, src)

	j, err := svc.CreateJob(context.Background(), []string{src}, segment.ModeSilence, quality.ProfileDefault)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Process(ctx, j.ID))

	done, err := svc.GetJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.NotEmpty(t, done.Error)
}
