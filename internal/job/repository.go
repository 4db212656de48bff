package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found in the repository.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the persistence interface for batch jobs.
type Repository interface {
	// Save persists a job.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its ID.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all jobs.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a job.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}
