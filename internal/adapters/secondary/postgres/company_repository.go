package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/core/utils"
)

const companyColumns = `id, name, organization_id, sla_target_percent, minimum_incident_threshold,
       contract_type, baseline_hours, is_active`

// CompanyRepository resolves company metadata.
type CompanyRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CompanyRepository = (*CompanyRepository)(nil)

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var (
		c     domain.Company
		orgID pgtype.UUID
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&orgID,
		&c.SLATargetPercent,
		&c.MinimumIncidentThreshold,
		&c.ContractType,
		&c.BaselineHours,
		&c.IsActive,
	); err != nil {
		return nil, err
	}
	c.OrganizationID = utils.FromNullUUID(orgID)
	return &c, nil
}

// GetByID returns the company or ErrCompanyNotFound.
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	query := "SELECT " + companyColumns + " FROM companies WHERE id = $1"

	c, err := scanCompany(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.NewRepositoryError("get company", err)
	}
	return c, nil
}

// ListActive returns active companies ordered by name.
func (r *CompanyRepository) ListActive(ctx context.Context) ([]*domain.Company, error) {
	query := "SELECT " + companyColumns + " FROM companies WHERE is_active ORDER BY name, id"

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewRepositoryError("list active companies", err)
	}
	defer rows.Close()

	companies := make([]*domain.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, apperrors.NewRepositoryError("list active companies", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError("list active companies", err)
	}
	return companies, nil
}

// Upsert creates or replaces a company.
func (r *CompanyRepository) Upsert(ctx context.Context, c *domain.Company) error {
	const query = `
INSERT INTO companies (` + companyColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    name                       = EXCLUDED.name,
    organization_id            = EXCLUDED.organization_id,
    sla_target_percent         = EXCLUDED.sla_target_percent,
    minimum_incident_threshold = EXCLUDED.minimum_incident_threshold,
    contract_type              = EXCLUDED.contract_type,
    baseline_hours             = EXCLUDED.baseline_hours,
    is_active                  = EXCLUDED.is_active
`
	_, err := GetDBTX(ctx, r.pool).Exec(ctx, query,
		c.ID,
		c.Name,
		utils.ToNullUUID(c.OrganizationID),
		c.SLATargetPercent,
		c.MinimumIncidentThreshold,
		c.ContractType,
		c.BaselineHours,
		c.IsActive,
	)
	if err != nil {
		return apperrors.NewRepositoryError("upsert company", err)
	}
	return nil
}
