package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/voiceforge/ttsdataset-api/internal/dataset"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/segment"
	"github.com/voiceforge/ttsdataset-api/internal/storage"
)

// BuildDatasetService runs dataset-build batches: every uploaded file goes
// through the pipeline strictly sequentially, then the dataset directory is
// packaged into one archive. Sequential processing is load-bearing: both
// metadata sinks are append-only files with a read-then-write header
// decision, and clip numbering derives from per-file sequence scans.
type BuildDatasetService struct {
	repo   Repository
	pipe   *pipeline.Pipeline
	acc    *dataset.Accumulator
	store  storage.Storage
	logger *slog.Logger

	pushToS3 bool
}

// ServiceOption configures a BuildDatasetService.
type ServiceOption func(*BuildDatasetService)

// WithS3Delivery enables uploading the packaged archive to S3.
func WithS3Delivery(enabled bool) ServiceOption {
	return func(s *BuildDatasetService) {
		s.pushToS3 = enabled
	}
}

// NewBuildDatasetService creates the batch service.
func NewBuildDatasetService(
	repo Repository,
	pipe *pipeline.Pipeline,
	acc *dataset.Accumulator,
	store storage.Storage,
	logger *slog.Logger,
	opts ...ServiceOption,
) *BuildDatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BuildDatasetService{
		repo:   repo,
		pipe:   pipe,
		acc:    acc,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob registers a new batch over the stored upload paths.
func (s *BuildDatasetService) CreateJob(ctx context.Context, inputPaths []string, mode segment.Mode, profile quality.Profile) (*Job, error) {
	if len(inputPaths) == 0 {
		return nil, fmt.Errorf("create job: no input files")
	}
	j := New(string(mode), string(profile), inputPaths)
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return j, nil
}

// GetJob returns the batch with the given ID.
func (s *BuildDatasetService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// Process runs the batch to completion. Per-file failures are recorded and
// the batch continues; only file-system faults fail the whole batch. The
// uploaded source files are removed once the batch reaches a terminal state.
func (s *BuildDatasetService) Process(ctx context.Context, jobID string) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := j.Start(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	defer s.cleanupUploads(ctx, j.InputPaths)

	opts := pipeline.Options{
		Mode:    segment.Mode(j.Mode),
		Profile: quality.Profile(j.Profile),
	}

	for _, path := range j.InputPaths {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, j, err.Error())
		}
		outcome, err := s.pipe.ProcessFile(ctx, path, opts)
		if err != nil {
			return s.fail(ctx, j, err.Error())
		}
		j.RecordResult(filepath.Base(path), outcome)
		if err := s.repo.Save(ctx, j); err != nil {
			return fmt.Errorf("save job: %w", err)
		}
	}

	archivePath, err := s.acc.Package(ctx)
	if err != nil {
		return s.fail(ctx, j, "packaging failed: "+err.Error())
	}

	archiveURL := ""
	if s.pushToS3 {
		archiveURL, err = s.uploadArchive(ctx, archivePath)
		if err != nil {
			s.logger.Error("archive upload failed",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
			// The archive still exists locally; the batch is not failed.
		}
	}

	if err := j.Complete(archivePath, archiveURL); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("batch completed",
		slog.String("job_id", j.ID),
		slog.Int("files", len(j.InputPaths)),
		slog.String("archive", archivePath),
	)
	return nil
}

func (s *BuildDatasetService) fail(ctx context.Context, j *Job, msg string) error {
	if err := j.Fail(msg); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	s.logger.Error("batch failed",
		slog.String("job_id", j.ID),
		slog.String("error", msg),
	)
	return nil
}

func (s *BuildDatasetService) uploadArchive(ctx context.Context, archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	return s.store.UploadArchive(ctx, filepath.Base(archivePath), f)
}

func (s *BuildDatasetService) cleanupUploads(ctx context.Context, paths []string) {
	if err := s.store.Cleanup(ctx, paths); err != nil {
		s.logger.Warn("upload cleanup incomplete", slog.String("error", err.Error()))
	}
}
