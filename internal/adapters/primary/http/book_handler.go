package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-books/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/infrastructure/logging"
)

// BookHandler serves snapshot generation and retrieval.
type BookHandler struct {
	snapshots    ports.SnapshotService
	batch        ports.BatchService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewBookHandler(snapshots ports.SnapshotService, batch ports.BatchService, errorHandler *ErrorHandler, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		snapshots:    snapshots,
		batch:        batch,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "books"),
	}
}

// RegisterRoutes mounts the book routes. batchMiddlewares wrap only the
// batch endpoint.
func (h *BookHandler) RegisterRoutes(r chi.Router, batchMiddlewares ...func(http.Handler) http.Handler) {
	r.With(batchMiddlewares...).Post("/batch", h.HandleBatch)

	r.Route("/{companyID}/snapshots", func(r chi.Router) {
		r.Post("/", h.HandleGenerate)
		r.Get("/latest", h.HandleLatest)
	})
}

// HandleGenerate handles POST /books/{companyID}/snapshots?month=&year=
func (h *BookHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	companyID, err := validation.ParseUUIDParam("companyID", chi.URLParam(r, "companyID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	period, err := validation.ParsePeriod(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithPeriod(logging.WithCompanyID(r.Context(), companyID.String()), period.Key())
	snapshot, err := h.snapshots.Generate(ctx, companyID, period)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(ctx, "snapshot generated",
		"snapshot_id", snapshot.ID,
		"partial", snapshot.IsPartial(),
	)
	WriteCreated(w, snapshot)
}

// HandleLatest handles GET /books/{companyID}/snapshots/latest?month=&year=
func (h *BookHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	companyID, err := validation.ParseUUIDParam("companyID", chi.URLParam(r, "companyID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	period, err := validation.ParsePeriod(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithPeriod(logging.WithCompanyID(r.Context(), companyID.String()), period.Key())
	snapshot, err := h.snapshots.Latest(ctx, companyID, period)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// HandleBatch handles POST /books/batch
func (h *BookHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[BatchRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	batchReq := req.ToPort()
	ctx := logging.WithPeriod(r.Context(), domain.PeriodWindow{Month: batchReq.Month, Year: batchReq.Year}.Key())
	result, err := h.batch.Generate(ctx, batchReq)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(ctx, "batch generated",
		"generated", len(result.Snapshots),
		"failed", len(result.Failures),
		"skipped", len(result.Skipped),
		"duration_ms", result.Duration.Milliseconds(),
	)
	WriteJSON(w, http.StatusOK, toBatchResponse(result, h.errorHandler.Code))
}
