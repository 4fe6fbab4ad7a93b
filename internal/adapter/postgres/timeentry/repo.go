// Package timeentry implements the TimeEntry repository using PostgreSQL.
// Upserts are keyed by (tenant_id, external_entry_id); dynamic listing
// filters are built with squirrel.
package timeentry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Repo provides time-entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new time-entry repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const timeEntryColumns = `id, tenant_id, external_entry_id, employee_account_id, entry_type,
	entry_date, start_time, end_time, total_hours, approval_status, is_raw, is_calculated,
	location_cost_center_id, department_cost_center_id, raw_payload, created_at, updated_at`

const upsertSQL = `
INSERT INTO time_entries (id, tenant_id, external_entry_id, employee_account_id, entry_type,
	entry_date, start_time, end_time, total_hours, approval_status, is_raw, is_calculated,
	location_cost_center_id, department_cost_center_id, raw_payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (tenant_id, external_entry_id) DO UPDATE
SET employee_account_id       = EXCLUDED.employee_account_id,
    entry_type                = EXCLUDED.entry_type,
    entry_date                = EXCLUDED.entry_date,
    start_time                = EXCLUDED.start_time,
    end_time                  = EXCLUDED.end_time,
    total_hours               = EXCLUDED.total_hours,
    approval_status           = EXCLUDED.approval_status,
    is_raw                    = EXCLUDED.is_raw,
    is_calculated             = EXCLUDED.is_calculated,
    location_cost_center_id   = EXCLUDED.location_cost_center_id,
    department_cost_center_id = EXCLUDED.department_cost_center_id,
    raw_payload               = EXCLUDED.raw_payload,
    updated_at                = EXCLUDED.updated_at`

// Upsert inserts or updates one time entry, keyed by
// (tenant_id, external_entry_id). Re-running the same entry is idempotent;
// the latest write wins.
func (r *Repo) Upsert(ctx context.Context, e domain.TimeEntry) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := q.Exec(ctx, upsertSQL,
		id, e.TenantID, e.ExternalEntryID, e.EmployeeAccountID, e.EntryType,
		e.EntryDate, e.StartTime, e.EndTime, e.TotalHours.InexactFloat64(), e.ApprovalStatus,
		e.IsRaw, e.IsCalculated, e.LocationCostCenterID, e.DepartmentCostCenterID,
		[]byte(e.RawPayload), now, now,
	)
	if err != nil {
		return postgres.MapError(err, "time_entry", e.ExternalEntryID)
	}

	return nil
}

// GetByExternalID returns a time entry by its vendor id within a tenant.
func (r *Repo) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*domain.TimeEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql := fmt.Sprintf(`SELECT %s FROM time_entries WHERE tenant_id = $1 AND external_entry_id = $2`, timeEntryColumns)
	rows, err := q.Query(ctx, sql, tenantID, externalID)
	if err != nil {
		return nil, postgres.MapError(err, "time_entry", externalID)
	}
	defer rows.Close()

	entries, err := scanTimeEntries(rows)
	if err != nil {
		return nil, postgres.MapError(err, "time_entry", externalID)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("time_entry %s: %w", externalID, domain.ErrNotFound)
	}

	e := entries[0]
	return &e, nil
}

// List returns time entries for a tenant matching the filter,
// ordered by entry_date.
func (r *Repo) List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]domain.TimeEntry, error) {
	f.normalize()

	builder := psql.
		Select(timeEntryColumns).
		From("time_entries").
		Where(sq.Eq{"tenant_id": tenantID})

	if f.EmployeeAccountID != nil {
		builder = builder.Where(sq.Eq{"employee_account_id": *f.EmployeeAccountID})
	}
	if f.From != nil {
		builder = builder.Where(sq.GtOrEq{"entry_date": *f.From})
	}
	if f.To != nil {
		builder = builder.Where(sq.LtOrEq{"entry_date": *f.To})
	}
	if f.ApprovalStatus != nil {
		builder = builder.Where(sq.Eq{"approval_status": *f.ApprovalStatus})
	}
	if f.EntryType != nil {
		builder = builder.Where(sq.Eq{"entry_type": *f.EntryType})
	}

	builder = builder.
		OrderBy("entry_date "+f.SortOrder, "external_entry_id "+f.SortOrder).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build time-entry query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanTimeEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}

	return entries, nil
}

// ListOpen returns the entries for a business date whose clock-in is
// recorded but whose clock-out is not: the live "currently clocked in"
// state derived from the mirrored entries.
func (r *Repo) ListOpen(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) ([]domain.TimeEntry, error) {
	sql, args, err := psql.
		Select(timeEntryColumns).
		From("time_entries").
		Where(sq.Eq{"tenant_id": tenantID, "entry_date": businessDate, "end_time": nil}).
		Where(sq.NotEq{"start_time": nil}).
		OrderBy("start_time", "external_entry_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open-entry query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list open entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanTimeEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list open entries: %w", err)
	}

	return entries, nil
}

// CountByTenant returns the number of stored entries for a tenant.
func (r *Repo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM time_entries WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count time entries: %w", err)
	}

	return count, nil
}

// scanTimeEntries scans rows into domain.TimeEntry values.
func scanTimeEntries(rows pgx.Rows) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	for rows.Next() {
		var (
			e          domain.TimeEntry
			totalHours float64
			rawPayload []byte
		)

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ExternalEntryID, &e.EmployeeAccountID, &e.EntryType,
			&e.EntryDate, &e.StartTime, &e.EndTime, &totalHours, &e.ApprovalStatus,
			&e.IsRaw, &e.IsCalculated, &e.LocationCostCenterID, &e.DepartmentCostCenterID,
			&rawPayload, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}

		e.TotalHours = decimal.NewFromFloat(totalHours).Round(2)
		e.RawPayload = json.RawMessage(rawPayload)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []domain.TimeEntry{}
	}

	return entries, nil
}
