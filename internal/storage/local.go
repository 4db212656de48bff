package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrS3NotConfigured is returned when archive upload is attempted without
// S3 configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage using local disk only. Archive delivery
// is unsupported unless wrapped by S3Storage.
type LocalStorage struct {
	uploadDir string
}

// NewLocalStorage creates a LocalStorage staging uploads under uploadDir.
// If uploadDir is empty, a directory under os.TempDir() is used. The
// directory is created if it doesn't exist.
func NewLocalStorage(uploadDir string) (*LocalStorage, error) {
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "ttsdataset", "uploads")
	}

	if err := os.MkdirAll(uploadDir, 0750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &LocalStorage{uploadDir: uploadDir}, nil
}

// UploadDir returns the staging directory path.
func (s *LocalStorage) UploadDir() string {
	return s.uploadDir
}

// SaveUpload stores the uploaded data under a unique name that keeps the
// original base name and extension, since the pipeline dispatches on both.
func (s *LocalStorage) SaveUpload(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "upload"
	}

	path := filepath.Join(s.uploadDir, base)
	if _, err := os.Stat(path); err == nil {
		// Name taken by an earlier upload in this batch or a concurrent one.
		path = filepath.Join(s.uploadDir, fmt.Sprintf("%s_%d%s", stem, time.Now().UnixNano(), ext))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// Cleanup removes the given files, continuing past individual failures and
// returning the first error encountered.
func (s *LocalStorage) Cleanup(_ context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// UploadArchive is unsupported on plain local storage.
func (s *LocalStorage) UploadArchive(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
