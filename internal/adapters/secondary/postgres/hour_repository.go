package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// HourRecordRepository reads billable-hour records. hours_total is stored as
// the upstream text and parsed by the domain.
type HourRecordRepository struct {
	pool *pgxpool.Pool
}

var _ ports.HourRecordRepository = (*HourRecordRepository)(nil)

func NewHourRecordRepository(pool *pgxpool.Pool) *HourRecordRepository {
	return &HourRecordRepository{pool: pool}
}

func (r *HourRecordRepository) Query(ctx context.Context, companyID uuid.UUID, from, to domain.PeriodWindow) ([]domain.HourRecord, error) {
	const query = `
SELECT id, company_id, period_year, period_month, hours_total, billing_type
FROM hour_records
WHERE company_id = $1
  AND (period_year * 12 + period_month) BETWEEN $2 AND $3
ORDER BY period_year, period_month, id
`
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query,
		companyID,
		from.Year*12+from.Month,
		to.Year*12+to.Month,
	)
	if err != nil {
		return nil, apperrors.NewRepositoryError("query hour records", err)
	}
	defer rows.Close()

	records := make([]domain.HourRecord, 0)
	for rows.Next() {
		var rec domain.HourRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CompanyID,
			&rec.Period.Year,
			&rec.Period.Month,
			&rec.HoursTotal.Raw,
			&rec.BillingType,
		); err != nil {
			return nil, apperrors.NewRepositoryError("query hour records", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError("query hour records", err)
	}
	return records, nil
}

// Insert stores hour records as given.
func (r *HourRecordRepository) Insert(ctx context.Context, records []domain.HourRecord) error {
	const query = `
INSERT INTO hour_records (id, company_id, period_year, period_month, hours_total, billing_type)
VALUES ($1, $2, $3, $4, $5, $6)
`
	db := GetDBTX(ctx, r.pool)
	for _, rec := range records {
		if _, err := db.Exec(ctx, query,
			rec.ID,
			rec.CompanyID,
			rec.Period.Year,
			rec.Period.Month,
			rec.HoursTotal.Raw,
			rec.BillingType,
		); err != nil {
			return apperrors.NewRepositoryError("insert hour records", err)
		}
	}
	return nil
}
