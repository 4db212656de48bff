// Package server provides the HTTP upload/progress/download layer around
// the dataset pipeline. DTOs are separated from domain types.
package server

// UploadRequest carries the validated form fields of an upload.
type UploadRequest struct {
	// Mode selects the segmentation strategy for the whole batch.
	Mode string `validate:"omitempty,oneof=silence sentence paragraph"`
	// Profile selects the quality gate profile.
	Profile string `validate:"omitempty,oneof=default voice_cloning"`
}

// UploadResponse is the HTTP response after submitting a batch.
type UploadResponse struct {
	// ID is the unique identifier for the created batch job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
	// Accepted is the number of files accepted for processing.
	Accepted int `json:"accepted"`
	// Skipped lists uploaded filenames rejected by the format allow-list.
	Skipped []string `json:"skipped,omitempty"`
}

// FileResultDTO is the per-file outcome inside a job response.
type FileResultDTO struct {
	// Filename is the original uploaded filename.
	Filename string `json:"filename"`
	// Status is "success" or "error".
	Status string `json:"status"`
	// Path is the label file path on success.
	Path string `json:"path,omitempty"`
	// Message is the human-readable error on failure.
	Message string `json:"message,omitempty"`
}

// JobResponse is the HTTP response for batch progress.
type JobResponse struct {
	// ID is the unique identifier for the batch.
	ID string `json:"id"`
	// Status is the current batch status.
	Status string `json:"status"`
	// Progress is the percentage of files processed (0-100).
	Progress int `json:"progress"`
	// Results holds the per-file outcomes so far.
	Results []FileResultDTO `json:"results,omitempty"`
	// ArchiveFile is the downloadable archive name once completed.
	ArchiveFile string `json:"archive_file,omitempty"`
	// ArchiveURL is the S3 URL of the archive when S3 delivery is enabled.
	ArchiveURL string `json:"archive_url,omitempty"`
	// Error contains the fatal error message if the batch failed.
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
