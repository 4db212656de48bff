// Package storage provides upload staging on local disk and optional S3
// delivery of the packaged dataset archive. The Storage interface is the
// port; LocalStorage and S3Storage are the adapters.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for upload staging and archive delivery.
type Storage interface {
	// SaveUpload stores an uploaded file and returns its path on disk.
	// The name parameter is used as a hint for the filename; its extension
	// is preserved because the pipeline dispatches on it.
	SaveUpload(ctx context.Context, name string, data io.Reader) (path string, err error)

	// Cleanup removes the specified staged files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error

	// UploadArchive uploads the packaged dataset archive and returns its URL.
	// Returns ErrS3NotConfigured when no S3 backend is configured.
	UploadArchive(ctx context.Context, key string, data io.Reader) (url string, err error)
}
