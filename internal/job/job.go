// Package job provides the batch Job aggregate for dataset builds. A job
// tracks one upload of audio files through sequential pipeline processing
// and final archive packaging, with a small state machine guarding the
// lifecycle, plus repository interfaces for persistence.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/voiceforge/ttsdataset-api/internal/job/id"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
)

// Status represents the current state of a batch Job.
type Status string

const (
	// StatusInQueue indicates the batch is waiting to be processed.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates files are being processed sequentially.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates processing and packaging finished.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the batch hit a fatal fault.
	StatusFailed Status = "FAILED"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// FileResult records the per-file pipeline outcome within a batch.
type FileResult struct {
	// Filename is the original uploaded filename.
	Filename string
	// Outcome is the pipeline's per-file result.
	Outcome pipeline.Outcome
}

// Job represents one dataset-build batch.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this batch.
	ID string
	// Status is the current batch state.
	Status Status
	// Mode is the segmentation mode used for every file in the batch.
	Mode string
	// Profile is the quality profile used for gating.
	Profile string
	// InputPaths are the stored upload paths, processed in order.
	InputPaths []string
	// Results holds one entry per processed file, in processing order.
	Results []FileResult
	// ArchivePath is the packaged dataset archive, set on completion.
	ArchivePath string
	// ArchiveURL is the S3 URL of the archive when S3 delivery is enabled.
	ArchiveURL string
	// Error contains the fatal error message if the batch failed.
	Error string
	// CreatedAt is when the batch was created.
	CreatedAt time.Time
	// UpdatedAt is when the batch was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New(mode, profile string, inputPaths []string) *Job {
	now := time.Now()
	return &Job{
		ID:         id.Generate(),
		Status:     StatusInQueue,
		Mode:       mode,
		Profile:    profile,
		InputPaths: append([]string(nil), inputPaths...),
		Results:    make([]FileResult, 0, len(inputPaths)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED and records the archive location.
func (j *Job) Complete(archivePath, archiveURL string) error {
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.mu.Lock()
	j.ArchivePath = archivePath
	j.ArchiveURL = archiveURL
	j.mu.Unlock()
	return nil
}

// Fail transitions the job to FAILED with an error message.
func (j *Job) Fail(errMsg string) error {
	if err := j.TransitionTo(StatusFailed); err != nil {
		return err
	}
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return nil
}

// RecordResult appends a per-file outcome.
func (j *Job) RecordResult(filename string, outcome pipeline.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Results = append(j.Results, FileResult{Filename: filename, Outcome: outcome})
	j.UpdatedAt = time.Now()
}

// Progress returns the percentage of files processed (0-100).
func (j *Job) Progress() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.InputPaths) == 0 {
		return 0
	}
	return len(j.Results) * 100 / len(j.InputPaths)
}

// Clone returns a deep copy of the job, safe to hand out across goroutines.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	clone := &Job{
		ID:          j.ID,
		Status:      j.Status,
		Mode:        j.Mode,
		Profile:     j.Profile,
		InputPaths:  append([]string(nil), j.InputPaths...),
		Results:     append([]FileResult(nil), j.Results...),
		ArchivePath: j.ArchivePath,
		ArchiveURL:  j.ArchiveURL,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	return clone
}
