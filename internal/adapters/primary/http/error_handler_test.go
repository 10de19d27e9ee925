package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
)

func TestErrorHandler_Handle(t *testing.T) {
	_, periodErr := domain.NewPeriodWindow(0, 2025)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"company not found", apperrors.ErrCompanyNotFound, stdhttp.StatusNotFound, "COMPANY_NOT_FOUND"},
		{"wrapped snapshot not found", fmt.Errorf("latest: %w", apperrors.ErrSnapshotNotFound), stdhttp.StatusNotFound, "SNAPSHOT_NOT_FOUND"},
		{"invalid period", periodErr, stdhttp.StatusBadRequest, "INVALID_PERIOD"},
		{"company id required", apperrors.ErrCompanyIDRequired, stdhttp.StatusBadRequest, "VALIDATION_ERROR"},
		{"repository", apperrors.NewRepositoryError("query tickets", errors.New("conn refused")), stdhttp.StatusServiceUnavailable, "REPOSITORY_UNAVAILABLE"},
		{"deadline", context.DeadlineExceeded, stdhttp.StatusGatewayTimeout, "TIMEOUT"},
		{"app error", apperrors.NewBadRequestError(errors.New("eof"), "Invalid request body"), stdhttp.StatusBadRequest, "BAD_REQUEST"},
		{"unknown", errors.New("boom"), stdhttp.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)

			handler.Handle(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.code, handler.Code(tt.err))
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	verrs := apperrors.NewValidationErrors()
	verrs.Add("month", "Must be between 1 and 12")

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil), verrs)

	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"Must be between 1 and 12"}, resp.Fields["month"])
	assert.Equal(t, "VALIDATION_ERROR", handler.Code(verrs))
}

func TestHandleError_NilIsNoop(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()

	handled := HandleError(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil), nil, handler)

	assert.False(t, handled)
	assert.Equal(t, 0, rec.Body.Len())
}
