package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/dataset"
	"github.com/voiceforge/ttsdataset-api/internal/job"
	"github.com/voiceforge/ttsdataset-api/internal/pipeline"
	"github.com/voiceforge/ttsdataset-api/internal/quality"
	"github.com/voiceforge/ttsdataset-api/internal/storage"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(context.Context, string, transcribe.Options) (*transcribe.Result, error) {
	return &transcribe.Result{Text: "Hallo Welt"}, nil
}

// newTestServer wires real components over temp directories, with background
// processing disabled so tests observe jobs in their created state.
func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()

	store, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	acc, err := dataset.NewAccumulator(filepath.Join(root, "tts_dataset"), nil)
	require.NoError(t, err)

	pipe := pipeline.New(audio.NewNormalizer("", nil), quality.NewAnalyzer(nil), fakeTranscriber{}, acc, nil)
	svc := job.NewBuildDatasetService(job.NewMemoryRepository(), pipe, acc, store, nil)

	h := NewHandlers(svc, store, root, nil, WithAsyncProcessing(false))
	return NewRouter(h, nil), root
}

// multipartBody builds an upload form with the given field values and files.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[HealthResponse](t, rec.Body)
	assert.Equal(t, "ok", resp.Status)
}

func TestUploadNoFiles(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartBody(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeJSON[ErrorResponse](t, rec.Body)
	assert.Equal(t, "NO_FILES", resp.Code)
}

func TestUploadInvalidMode(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartBody(t,
		map[string]string{"mode": "chapter"},
		map[string][]byte{"voice.wav": []byte("data")},
	)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeJSON[ErrorResponse](t, rec.Body)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestUploadAllFilesUnsupported(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartBody(t, nil, map[string][]byte{
		"notes.txt": []byte("text"),
		"image.png": []byte("png"),
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeJSON[ErrorResponse](t, rec.Body)
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Code)
}

func TestUploadAcceptsAudioAndSkipsRest(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartBody(t,
		map[string]string{"mode": "silence", "profile": "default"},
		map[string][]byte{
			"voice.wav": []byte("RIFF data"),
			"notes.txt": []byte("text"),
		},
	)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeJSON[UploadResponse](t, rec.Body)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, string(job.StatusInQueue), resp.Status)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, []string{"notes.txt"}, resp.Skipped)

	// The job is queryable right away.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	jobResp := decodeJSON[JobResponse](t, rec.Body)
	assert.Equal(t, resp.ID, jobResp.ID)
	assert.Equal(t, string(job.StatusInQueue), jobResp.Status)
	assert.Zero(t, jobResp.Progress)
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/batch-missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeJSON[ErrorResponse](t, rec.Body)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestDownloadArchive(t *testing.T) {
	router, resultsDir := newTestServer(t)

	archive := filepath.Join(resultsDir, "tts_dataset.zip")
	require.NoError(t, os.WriteFile(archive, []byte("zip bytes"), 0o644))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/tts_dataset.zip", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zip bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tts_dataset.zip")
}

func TestDownloadRejectsNonArchiveName(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/metadata.csv", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeJSON[ErrorResponse](t, rec.Body)
	assert.Equal(t, "INVALID_NAME", resp.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
