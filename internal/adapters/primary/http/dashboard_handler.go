package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/dispatch-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/dispatch-analytics/internal/core/analytics"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/logging"
)

// uploadField is the multipart field that carries the dataset file.
const uploadField = "file"

// DashboardHandler handles HTTP requests for dataset uploads and KPI reads
type DashboardHandler struct {
	service        ports.DashboardService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
	uploadLimiter  func(http.Handler) http.Handler
}

// NewDashboardHandler creates a new dashboard handler. uploadLimiter may be
// nil to leave uploads unthrottled.
func NewDashboardHandler(
	service ports.DashboardService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	maxUploadBytes int64,
	uploadLimiter func(http.Handler) http.Handler,
) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "dashboard"),
		maxUploadBytes: maxUploadBytes,
		uploadLimiter:  uploadLimiter,
	}
}

// RegisterRoutes sets up the routing for all dashboard endpoints.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.uploadLimiter != nil {
			r.Use(h.uploadLimiter)
		}
		r.Post("/datasets", h.HandleUploadDetected)
		r.Post("/datasets/{kind}", h.HandleUpload)
	})

	r.Get("/dashboard", h.HandleGetDashboard)
	r.Get("/kpis", h.HandleGetKPIs)
	r.Get("/cases", h.HandleListCases)
	r.Get("/views", h.HandleListViews)
}

// --- Response DTOs ---

// ViewResponse describes one drill-down view
type ViewResponse struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// --- Handlers ---

// HandleUpload replaces the dataset named in the path with the uploaded file
func (h *DashboardHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	kind := domain.DatasetKind(chi.URLParam(r, "kind"))
	ctx := logging.WithSource(r.Context(), "upload")

	upload, err := validation.ReadUpload(w, r, uploadField, h.maxUploadBytes)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	result, err := h.service.Ingest(ctx, ports.UploadParams{
		Kind:     kind,
		FileName: upload.FileName,
		Content:  upload.Content,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteCreated(w, result)
}

// HandleUploadDetected ingests a file whose dataset kind is inferred from its content
func (h *DashboardHandler) HandleUploadDetected(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithSource(r.Context(), "upload")

	upload, err := validation.ReadUpload(w, r, uploadField, h.maxUploadBytes)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	result, err := h.service.IngestDetected(ctx, ports.DetectParams{
		FileName: upload.FileName,
		Content:  upload.Content,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteCreated(w, result)
}

// HandleGetDashboard returns dataset metadata, the operations summary and KPIs
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, state)
}

// HandleGetKPIs returns the current KPI snapshot
func (h *DashboardHandler) HandleGetKPIs(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, metrics)
}

// HandleListCases returns the case list filtered or ranked for a view
func (h *DashboardHandler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	params := ports.ListCasesParams{}
	if view := validation.ParseStringQueryParam(r, "view"); view != nil {
		params.View = *view
	}

	list, err := h.service.ListCases(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

// HandleListViews lists the drill-down views and their headings
func (h *DashboardHandler) HandleListViews(w http.ResponseWriter, r *http.Request) {
	names := analytics.Views()
	views := make([]ViewResponse, 0, len(names))
	for _, name := range names {
		views = append(views, ViewResponse{Name: name, Title: analytics.View(name).Title()})
	}
	WriteList(w, views)
}
