package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/core/utils"
)

const ticketColumns = `id, organization_id, organization_name, type_code, resolution_code,
       group_name, configuration_item, is_parent_case, status, sla_breached,
       opened_at, solved_at`

// TicketRepository reads service-desk tickets. Every query is built from a
// domain.TicketFilter through whereClause.
type TicketRepository struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool, tx: NewTransactionManager(pool)}
}

// Query returns the tickets matching filter whose field falls in window.
func (r *TicketRepository) Query(ctx context.Context, filter domain.TicketFilter, field domain.DateField, window domain.DateRange) ([]domain.TicketRecord, error) {
	column, err := dateColumn(field)
	if err != nil {
		return nil, apperrors.NewRepositoryError("query tickets", err)
	}

	w := whereClause(filter)
	w.add(column+" >= ?", window.Start)
	if window.EndInclusive {
		w.add(column+" <= ?", window.End)
	} else {
		w.add(column+" < ?", window.End)
	}

	query := "SELECT " + ticketColumns + " FROM tickets WHERE " + w.sql() + " ORDER BY " + column + ", id"
	return r.fetch(ctx, "query tickets", query, w.args)
}

// QueryBacklog returns the tickets matching filter that are still open.
func (r *TicketRepository) QueryBacklog(ctx context.Context, filter domain.TicketFilter) ([]domain.TicketRecord, error) {
	w := whereClause(filter)
	w.add("NOT (lower(status) = ANY(?))", []string{
		strings.ToLower(domain.StatusClosed),
		strings.ToLower(domain.StatusResolved),
		strings.ToLower(domain.StatusCanceled),
	})

	query := "SELECT " + ticketColumns + " FROM tickets WHERE " + w.sql() + " ORDER BY opened_at, id"
	return r.fetch(ctx, "query backlog", query, w.args)
}

// Upsert writes tickets in one transaction, replacing rows with the same id.
func (r *TicketRepository) Upsert(ctx context.Context, tickets []domain.TicketRecord) error {
	const query = `
INSERT INTO tickets (` + ticketColumns + `, organization_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
    organization_id    = EXCLUDED.organization_id,
    organization_name  = EXCLUDED.organization_name,
    organization_key   = EXCLUDED.organization_key,
    type_code          = EXCLUDED.type_code,
    resolution_code    = EXCLUDED.resolution_code,
    group_name         = EXCLUDED.group_name,
    configuration_item = EXCLUDED.configuration_item,
    is_parent_case     = EXCLUDED.is_parent_case,
    status             = EXCLUDED.status,
    sla_breached       = EXCLUDED.sla_breached,
    opened_at          = EXCLUDED.opened_at,
    solved_at          = EXCLUDED.solved_at
`
	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range tickets {
			batch.Queue(query,
				t.ID,
				utils.ToNullUUID(t.OrganizationID),
				t.OrganizationName,
				t.TypeCode,
				utils.ToNullString(t.ResolutionCode),
				utils.ToNullString(t.GroupName),
				utils.ToNullString(t.ConfigurationItem),
				t.IsParentCase,
				t.Status,
				t.SLABreached,
				t.OpenedAt,
				utils.ToNullTime(t.SolvedAt),
				domain.FoldOrganizationName(t.OrganizationName),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return apperrors.NewRepositoryError("upsert tickets", err)
	}
	return nil
}

func (r *TicketRepository) fetch(ctx context.Context, op, query string, args []any) ([]domain.TicketRecord, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewRepositoryError(op, err)
	}
	defer rows.Close()

	tickets := make([]domain.TicketRecord, 0)
	for rows.Next() {
		var (
			t              domain.TicketRecord
			orgID          pgtype.UUID
			resolutionCode pgtype.Text
			groupName      pgtype.Text
			configItem     pgtype.Text
			solvedAt       pgtype.Timestamptz
		)
		if err := rows.Scan(
			&t.ID,
			&orgID,
			&t.OrganizationName,
			&t.TypeCode,
			&resolutionCode,
			&groupName,
			&configItem,
			&t.IsParentCase,
			&t.Status,
			&t.SLABreached,
			&t.OpenedAt,
			&solvedAt,
		); err != nil {
			return nil, apperrors.NewRepositoryError(op, err)
		}
		t.OrganizationID = utils.FromNullUUID(orgID)
		t.ResolutionCode = utils.FromNullString(resolutionCode)
		t.GroupName = utils.FromNullString(groupName)
		t.ConfigurationItem = utils.FromNullString(configItem)
		t.OpenedAt = t.OpenedAt.UTC()
		t.SolvedAt = utils.FromNullTime(solvedAt)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError(op, err)
	}
	return tickets, nil
}

func dateColumn(field domain.DateField) (string, error) {
	switch field {
	case domain.DateFieldOpenedAt:
		return "opened_at", nil
	case domain.DateFieldSolvedAt:
		return "solved_at", nil
	}
	return "", fmt.Errorf("%w: unknown date field %q", apperrors.ErrBadRequest, field)
}

// where accumulates AND-ed conditions. Each "?" in a condition becomes the
// next positional parameter.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conds, "\n  AND ")
}

// whereClause translates a TicketFilter into SQL. It must stay equivalent
// to TicketFilter.Matches.
func whereClause(f domain.TicketFilter) *where {
	w := &where{}

	switch {
	case f.OrganizationID != nil && f.OrganizationName != "":
		w.add("(organization_id = ? OR organization_key LIKE ?)", *f.OrganizationID, organizationPattern(f.OrganizationName))
	case f.OrganizationID != nil:
		w.add("organization_id = ?", *f.OrganizationID)
	case f.OrganizationName != "":
		w.add("organization_key LIKE ?", organizationPattern(f.OrganizationName))
	default:
		w.add("FALSE")
	}

	if f.ExcludedTypeCode != "" {
		w.add("type_code <> ?", f.ExcludedTypeCode)
	}
	if f.ExcludedConfigItem != "" {
		w.add("(configuration_item IS NULL OR configuration_item <> ?)", f.ExcludedConfigItem)
	}
	if f.RequireParentCase {
		w.add("is_parent_case")
	}
	if len(f.ExcludedGroups) > 0 {
		w.add("(group_name IS NULL OR NOT (group_name = ANY(?)))", f.ExcludedGroups)
	}
	if len(f.TypeCodes) > 0 {
		w.add("type_code = ANY(?)", f.TypeCodes)
	}
	if f.OnlySLABreached {
		w.add("sla_breached")
	}

	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// organizationPattern matches organization_key, which holds the name folded
// by domain.FoldOrganizationName.
func organizationPattern(name string) string {
	return "%" + likeEscaper.Replace(domain.FoldOrganizationName(name)) + "%"
}
