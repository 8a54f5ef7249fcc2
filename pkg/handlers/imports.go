package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewtrail/brewtrail-engine/pkg/config"
	"github.com/brewtrail/brewtrail-engine/pkg/services"
)

// ImportsHandler accepts batch file uploads and exposes job status.
type ImportsHandler struct {
	jobs   services.ImportJobService
	cfg    *config.ImportConfig
	logger *zap.Logger
}

// NewImportsHandler creates a new ImportsHandler.
func NewImportsHandler(jobs services.ImportJobService, cfg *config.ImportConfig, logger *zap.Logger) *ImportsHandler {
	return &ImportsHandler{jobs: jobs, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the imports handler's routes on the given mux.
func (h *ImportsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/imports/cities", h.UploadCities)
	mux.HandleFunc("POST /api/imports/breweries", h.UploadBreweries)
	mux.HandleFunc("GET /api/imports/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/imports/jobs", h.ListJobs)
}

// UploadCities handles POST /api/imports/cities requests.
func (h *ImportsHandler) UploadCities(w http.ResponseWriter, r *http.Request) {
	h.acceptUpload(w, r, services.ImportKindCities)
}

// UploadBreweries handles POST /api/imports/breweries requests.
func (h *ImportsHandler) UploadBreweries(w http.ResponseWriter, r *http.Request) {
	h.acceptUpload(w, r, services.ImportKindBreweries)
}

// acceptUpload stages the uploaded file on disk and enqueues a batch job.
// The response is 202; callers poll the job endpoint for the outcome.
func (h *ImportsHandler) acceptUpload(w http.ResponseWriter, r *http.Request, kind services.ImportKind) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "missing_file", "No file provided"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	defer file.Close()

	staged, err := h.stageFile(file, header.Filename)
	if err != nil {
		h.logger.Error("Failed to stage uploaded file", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to store uploaded file"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	job, err := h.jobs.Start(kind, staged)
	if err != nil {
		h.logger.Error("Failed to start import job", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to start import"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	response := map[string]string{
		"message": "file received, processing data",
		"job_id":  job.ID.String(),
	}
	if err := WriteJSON(w, http.StatusAccepted, response); err != nil {
		h.logger.Error("Failed to encode upload response", zap.Error(err))
	}
}

// stageFile copies the upload into the staging directory under a unique name.
func (h *ImportsHandler) stageFile(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.New().String() + "_" + filepath.Base(originalName)
	path := filepath.Join(h.cfg.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}

	return path, nil
}

// GetJob handles GET /api/imports/jobs/{id} requests.
func (h *ImportsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_job_id", "Invalid job ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	job, ok := h.jobs.Get(id)
	if !ok {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "job_not_found", "Import job not found"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, job); err != nil {
		h.logger.Error("Failed to encode job response", zap.Error(err))
	}
}

// ListJobs handles GET /api/imports/jobs requests.
func (h *ImportsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": h.jobs.List()}); err != nil {
		h.logger.Error("Failed to encode jobs response", zap.Error(err))
	}
}
