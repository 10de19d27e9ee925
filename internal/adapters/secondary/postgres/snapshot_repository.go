package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

// SnapshotRepository stores frozen snapshots as jsonb. Rows are only ever
// inserted; the newest row per company and period is the current one.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

var _ ports.SnapshotStore = (*SnapshotRepository)(nil)

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.BookMetricsSnapshot) error {
	const query = `
INSERT INTO book_snapshots (id, company_id, period_year, period_month, generated_at, is_partial, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = GetDBTX(ctx, r.pool).Exec(ctx, query,
		snapshot.ID,
		snapshot.CompanyID,
		snapshot.Period.Year,
		snapshot.Period.Month,
		snapshot.GeneratedAt,
		snapshot.IsPartial(),
		payload,
	)
	if err != nil {
		return apperrors.NewRepositoryError("save snapshot", err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	const query = `
SELECT payload
FROM book_snapshots
WHERE company_id = $1 AND period_year = $2 AND period_month = $3
ORDER BY generated_at DESC, id DESC
LIMIT 1
`
	var payload []byte
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, companyID, period.Year, period.Month).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.NewRepositoryError("latest snapshot", err)
	}
	return decodeSnapshot(payload)
}

// ListByPeriod returns the newest snapshot of each company for period.
func (r *SnapshotRepository) ListByPeriod(ctx context.Context, period domain.PeriodWindow) ([]*domain.BookMetricsSnapshot, error) {
	const query = `
SELECT DISTINCT ON (company_id) payload
FROM book_snapshots
WHERE period_year = $1 AND period_month = $2
ORDER BY company_id, generated_at DESC, id DESC
`
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, period.Year, period.Month)
	if err != nil {
		return nil, apperrors.NewRepositoryError("list snapshots", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.BookMetricsSnapshot, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.NewRepositoryError("list snapshots", err)
		}
		s, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError("list snapshots", err)
	}
	return snapshots, nil
}

func decodeSnapshot(payload []byte) (*domain.BookMetricsSnapshot, error) {
	var s domain.BookMetricsSnapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
