package http

import (
	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// MaxBatchCompanies bounds the explicit company list of one batch request.
const MaxBatchCompanies = 500

// BatchRequest is the body of POST /books/batch. An empty companyIds list
// means every active company.
type BatchRequest struct {
	CompanyIDs []string `json:"companyIds"`
	Month      *int     `json:"month"`
	Year       *int     `json:"year"`
	Persist    *bool    `json:"persist,omitempty"`
}

func (r *BatchRequest) Validate() error {
	v := validation.NewValidator()

	v.NotNil("month", r.Month).
		NotNil("year", r.Year).
		Max("companyIds", len(r.CompanyIDs), MaxBatchCompanies)

	if r.Month != nil && r.Year != nil {
		v.Period(*r.Month, *r.Year)
	}
	for _, id := range r.CompanyIDs {
		v.Required("companyIds", id).UUID("companyIds", id)
	}

	return v.Err()
}

// ToPort converts a validated request.
func (r *BatchRequest) ToPort() ports.BatchRequest {
	ids := make([]uuid.UUID, 0, len(r.CompanyIDs))
	for _, id := range r.CompanyIDs {
		ids = append(ids, uuid.MustParse(id))
	}
	persist := true
	if r.Persist != nil {
		persist = *r.Persist
	}
	return ports.BatchRequest{
		CompanyIDs: ids,
		Month:      *r.Month,
		Year:       *r.Year,
		Persist:    persist,
	}
}

// BatchSnapshotDTO summarizes one generated snapshot.
type BatchSnapshotDTO struct {
	CompanyID        uuid.UUID           `json:"companyId"`
	SnapshotID       uuid.UUID           `json:"snapshotId"`
	CompanyName      string              `json:"companyName"`
	IsPartial        bool                `json:"isPartial"`
	FallbackSections []string            `json:"fallbackSections"`
	Cover            domain.CoverSummary `json:"cover"`
}

// BatchFailureDTO reports a company whose snapshot could not be built.
type BatchFailureDTO struct {
	CompanyID uuid.UUID `json:"companyId"`
	Error     string    `json:"error"`
	Code      string    `json:"code"`
}

// BatchResponse is the summary returned by POST /books/batch.
type BatchResponse struct {
	Period     domain.PeriodWindow `json:"period"`
	Generated  int                 `json:"generated"`
	Snapshots  []BatchSnapshotDTO  `json:"snapshots"`
	Failures   []BatchFailureDTO   `json:"failures"`
	Skipped    []uuid.UUID         `json:"skipped"`
	DurationMs int64               `json:"durationMs"`
}

func toBatchResponse(result *ports.BatchResult, codeOf func(error) string) BatchResponse {
	resp := BatchResponse{
		Period:     result.Period,
		Generated:  len(result.Snapshots),
		Snapshots:  make([]BatchSnapshotDTO, 0, len(result.Snapshots)),
		Failures:   make([]BatchFailureDTO, 0, len(result.Failures)),
		Skipped:    make([]uuid.UUID, 0, len(result.Skipped)),
		DurationMs: result.Duration.Milliseconds(),
	}

	for _, s := range result.Snapshots {
		resp.Snapshots = append(resp.Snapshots, BatchSnapshotDTO{
			CompanyID:        s.CompanyID,
			SnapshotID:       s.ID,
			CompanyName:      s.Cover.CompanyName,
			IsPartial:        s.IsPartial(),
			FallbackSections: s.Cover.FallbackSections,
			Cover:            s.Cover,
		})
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, BatchFailureDTO{
			CompanyID: f.CompanyID,
			Error:     f.Err.Error(),
			Code:      codeOf(f.Err),
		})
	}
	resp.Skipped = append(resp.Skipped, result.Skipped...)

	return resp
}
