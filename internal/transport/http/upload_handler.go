package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/salesdata"
	"salespulse/internal/services"
	api "salespulse/pkg/contracts/api/v1"
)

// UploadHandler serves the upload, metrics, raw data, directory and export
// endpoints with RFC 7807 errors
type UploadHandler struct {
	service      UploadServiceInterface
	validator    *middleware.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	formField    string
	maxMemory    int64
}

// NewUploadHandler creates a new upload handler. formField names the
// multipart part carrying the file; maxMemory bounds the part of the form
// held in memory.
func NewUploadHandler(service UploadServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, formField string, maxMemory int64) *UploadHandler {
	return &UploadHandler{
		service:      service,
		validator:    middleware.NewRequestValidator(),
		logger:       logger.With(slog.String("component", "upload_handler")),
		errorHandler: errorHandler,
		formField:    formField,
		maxMemory:    maxMemory,
	}
}

// Routes returns the upload routes, mounted under /api
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/upload", h.Upload)
	r.Get("/uploaded-files", h.ListUploads)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/metrics/{file_id}", h.GetMetrics)
		r.Get("/raw-data/{file_id}", h.GetRawData)
	})

	r.Get("/export/{file_id}", h.Export)

	return r
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.logger.WarnContext(ctx, "invalid multipart form",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(h.formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest, apierrors.CodeMissingFile,
				fmt.Sprintf("No file uploaded in form field %q", h.formField)))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("filename", header.Filename),
		slog.Int("size_bytes", len(content)),
		slog.String("request_id", middleware.GetRequestID(ctx)))

	resp, err := h.service.Upload(ctx, header.Filename, content)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// GetMetrics handles GET /api/metrics/{file_id}
func (h *UploadHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context(), chi.URLParam(r, "file_id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, metrics)
}

// GetRawData handles GET /api/raw-data/{file_id}?limit=N
func (h *UploadHandler) GetRawData(w http.ResponseWriter, r *http.Request) {
	req := api.RawDataRequest{
		FileID: chi.URLParam(r, "file_id"),
		Limit:  api.DefaultRawDataLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be an integer"))
			return
		}
		req.Limit = limit
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.RawData(r.Context(), req.FileID, req.Limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, rows)
}

// ListUploads handles GET /api/uploaded-files
func (h *UploadHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.ListUploads(r.Context()))
}

// Export handles GET /api/export/{file_id}?format=csv|xlsx. The format
// defaults to csv.
func (h *UploadHandler) Export(w http.ResponseWriter, r *http.Request) {
	req := api.ExportRequest{
		FileID: chi.URLParam(r, "file_id"),
		Format: r.URL.Query().Get("format"),
	}
	if req.Format == "" {
		req.Format = api.ExportFormatCSV
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Export(r.Context(), req.FileID, req.Format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("file_id", req.FileID),
			slog.String("error", err.Error()))
	}
}

// handleServiceError maps service errors to API errors
func (h *UploadHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *salesdata.ParseError

	switch {
	case errors.Is(err, services.ErrInvalidExtension):
		err = apierrors.InvalidFileType(err)
	case errors.Is(err, services.ErrMissingFile):
		err = apierrors.New(http.StatusBadRequest, apierrors.CodeMissingFile, "No file name given")
	case errors.As(err, &parseErr):
		err = apierrors.ParseFailure(err)
	case errors.Is(err, services.ErrUploadNotFound):
		err = apierrors.FileNotFound(err)
	case errors.Is(err, services.ErrInvalidLimit):
		err = apierrors.ErrValidation("limit", "limit must be at least 0")
	case errors.Is(err, services.ErrInvalidExportFormat):
		err = apierrors.ErrValidation("format", "format must be one of: csv, xlsx")
	}

	h.errorHandler.HandleError(w, r, err)
}
