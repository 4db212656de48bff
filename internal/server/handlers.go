package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/job"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/segment"
	"github.com/voiceforge/ttsdataset-api/internal/storage"
)

// maxUploadBytes caps one multipart upload.
const maxUploadBytes = 512 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *job.BuildDatasetService
	store          storage.Storage
	validator      *validator.Validate
	logger         *slog.Logger
	resultsDir     string
	defaultMode    segment.Mode
	defaultProfile quality.Profile

	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, Upload only creates the job and returns immediately
// without starting background processing. Used by tests.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithDefaults sets the segmentation mode and quality profile applied when
// the upload form omits them.
func WithDefaults(mode segment.Mode, profile quality.Profile) HandlerOption {
	return func(h *Handlers) {
		h.defaultMode = mode
		h.defaultProfile = profile
	}
}

// NewHandlers creates a new Handlers instance. resultsDir is the directory
// containing the packaged archives served by Download.
func NewHandlers(service *job.BuildDatasetService, store storage.Storage, resultsDir string, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		store:              store,
		validator:          validator.New(),
		logger:             logger,
		resultsDir:         resultsDir,
		defaultMode:        segment.ModeSilence,
		defaultProfile:     quality.ProfileDefault,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /upload requests. It stages every allowed file, then
// creates one batch job covering them and kicks off sequential processing.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	req := UploadRequest{
		Mode:    r.FormValue("mode"),
		Profile: r.FormValue("profile"),
	}
	if err := h.validator.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+strings.ToLower(verrs[0].Field()), "VALIDATION_ERROR")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request", "VALIDATION_ERROR")
		return
	}
	mode := h.defaultMode
	if req.Mode != "" {
		mode = segment.Mode(req.Mode)
	}
	profile := h.defaultProfile
	if req.Profile != "" {
		profile = quality.Profile(req.Profile)
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded", "NO_FILES")
		return
	}

	var stored []string
	var skipped []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !audio.SupportedExtension(filepath.Ext(name)) {
			skipped = append(skipped, name)
			continue
		}
		src, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read upload", "UPLOAD_ERROR")
			return
		}
		path, err := h.store.SaveUpload(r.Context(), name, src)
		src.Close()
		if err != nil {
			h.logger.Error("failed to stage upload",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_ERROR")
			return
		}
		stored = append(stored, path)
	}

	if len(stored) == 0 {
		writeError(w, http.StatusBadRequest, "no supported audio files in upload", "UNSUPPORTED_FORMAT")
		return
	}

	j, err := h.service.CreateJob(r.Context(), stored, mode, profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_ERROR")
		return
	}

	if h.enableAsyncProcess {
		go func() {
			// Detached from the request context: the batch outlives the
			// HTTP exchange.
			if err := h.service.Process(context.Background(), j.ID); err != nil {
				h.logger.Error("batch processing error",
					slog.String("job_id", j.ID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	writeJSON(w, http.StatusAccepted, UploadResponse{
		ID:       j.ID,
		Status:   string(j.Status),
		Accepted: len(stored),
		Skipped:  skipped,
	})
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job ID", "MISSING_ID")
		return
	}

	j, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load job", "JOB_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(j))
}

// Download handles GET /results/{file} requests, serving packaged archives.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("file"))
	if name == "" || name == "." || !strings.HasSuffix(name, ".zip") {
		writeError(w, http.StatusBadRequest, "invalid archive name", "INVALID_NAME")
		return
	}
	path := filepath.Join(h.resultsDir, name)

	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, path)
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		Status:     string(j.Status),
		Progress:   j.Progress(),
		ArchiveURL: j.ArchiveURL,
		Error:      j.Error,
	}
	if j.ArchivePath != "" {
		resp.ArchiveFile = filepath.Base(j.ArchivePath)
	}
	for _, fr := range j.Results {
		dto := FileResultDTO{
			Filename: fr.Filename,
			Status:   string(fr.Outcome.Status),
			Message:  fr.Outcome.Message,
		}
		if fr.Outcome.Status == pipeline.StatusSuccess {
			dto.Path = fr.Outcome.LabelPath
		}
		resp.Results = append(resp.Results, dto)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
