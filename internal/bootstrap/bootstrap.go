// Package bootstrap provides dependency initialization for the dataset API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/config"
	"github.com/voiceforge/ttsdataset-api/internal/dataset"
	"github.com/voiceforge/ttsdataset-api/internal/job"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/storage"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Service *job.BuildDatasetService
	Store   storage.Storage
	// ResultsDir is where packaged archives land (the dataset root's parent).
	ResultsDir string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// The transcriber handle is built once per process and shared read-only
	// across all sequential pipeline calls.
	transcriber, err := transcribe.NewWhisperClient(cfg.WhisperURL,
		transcribe.WithModel(cfg.WhisperModel),
		transcribe.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create whisper client: %w", err)
	}

	acc, err := dataset.NewAccumulator(cfg.DatasetDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create dataset accumulator: %w", err)
	}

	pipe := pipeline.New(
		audio.NewNormalizer(cfg.FFmpegPath, logger),
		quality.NewAnalyzer(logger),
		transcriber,
		acc,
		logger,
	)

	repo := job.NewMemoryRepository()

	svc := job.NewBuildDatasetService(
		repo,
		pipe,
		acc,
		store,
		logger,
		job.WithS3Delivery(cfg.S3Enabled()),
	)

	return &Dependencies{
		Service:    svc,
		Store:      store,
		ResultsDir: filepath.Dir(cfg.DatasetDir),
	}, nil
}

func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(cfg.UploadDir, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("upload_dir", cfg.UploadDir),
	)
	return localStore, nil
}
