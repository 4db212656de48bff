package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
)

func TestNewJob(t *testing.T) {
	j := New("silence", "default", []string{"/tmp/a.wav", "/tmp/b.wav"})

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusInQueue, j.Status)
	assert.Equal(t, "silence", j.Mode)
	assert.Equal(t, "default", j.Profile)
	assert.Len(t, j.InputPaths, 2)
	assert.Empty(t, j.Results)
	assert.False(t, j.CreatedAt.IsZero())
}

func TestJobLifecycle(t *testing.T) {
	j := New("silence", "default", []string{"/tmp/a.wav"})

	require.NoError(t, j.Start())
	assert.Equal(t, StatusRunning, j.Status)
	assert.False(t, j.StartedAt.IsZero())

	require.NoError(t, j.Complete("/tmp/tts_dataset.zip", ""))
	assert.Equal(t, StatusCompleted, j.Status)
	assert.Equal(t, "/tmp/tts_dataset.zip", j.ArchivePath)
	assert.False(t, j.CompletedAt.IsZero())
	assert.True(t, j.Status.IsTerminal())
}

func TestJobFail(t *testing.T) {
	j := New("silence", "default", []string{"/tmp/a.wav"})
	require.NoError(t, j.Start())
	require.NoError(t, j.Fail("disk full"))

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "disk full", j.Error)
	assert.True(t, j.Status.IsTerminal())
}

func TestJobInvalidTransitions(t *testing.T) {
	j := New("silence", "default", []string{"/tmp/a.wav"})

	// Cannot complete before starting.
	assert.ErrorIs(t, j.Complete("/tmp/x.zip", ""), ErrInvalidTransition)

	require.NoError(t, j.Start())
	require.NoError(t, j.Complete("/tmp/x.zip", ""))

	// Terminal states are final.
	assert.ErrorIs(t, j.Start(), ErrInvalidTransition)
	assert.ErrorIs(t, j.Fail("late"), ErrInvalidTransition)
}

func TestJobProgress(t *testing.T) {
	j := New("silence", "default", []string{"/a.wav", "/b.wav", "/c.wav"})
	assert.Equal(t, 0, j.Progress())

	j.RecordResult("a.wav", pipeline.Outcome{Status: pipeline.StatusSuccess})
	assert.Equal(t, 33, j.Progress())

	j.RecordResult("b.wav", pipeline.Outcome{Status: pipeline.StatusError, Message: "skipped"})
	j.RecordResult("c.wav", pipeline.Outcome{Status: pipeline.StatusSuccess})
	assert.Equal(t, 100, j.Progress())
}

func TestJobProgressNoInputs(t *testing.T) {
	j := &Job{Status: StatusInQueue}
	assert.Equal(t, 0, j.Progress())
}

func TestJobClone(t *testing.T) {
	j := New("sentence", "voice_cloning", []string{"/a.wav"})
	j.RecordResult("a.wav", pipeline.Outcome{Status: pipeline.StatusSuccess, LabelPath: "/data/metadata.csv"})

	clone := j.Clone()
	assert.Equal(t, j.ID, clone.ID)
	assert.Equal(t, j.Results, clone.Results)

	// Mutating the clone must not leak back.
	clone.Results[0].Filename = "changed"
	clone.InputPaths[0] = "changed"
	assert.Equal(t, "a.wav", j.Results[0].Filename)
	assert.Equal(t, "/a.wav", j.InputPaths[0])
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	j := New("silence", "default", []string{"/a.wav"})
	require.NoError(t, repo.Save(ctx, j))

	found, err := repo.FindByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, found.ID)

	// Saved jobs are isolated from later caller mutations.
	require.NoError(t, j.Start())
	stale, err := repo.FindByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInQueue, stale.Status)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, j.ID))
	_, err = repo.FindByID(ctx, j.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, j.ID), ErrJobNotFound)
}
