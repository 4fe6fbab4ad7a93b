// Package snapshot implements storage for the clocked-in snapshot cache.
// The snapshot is derived state: a refresh deletes the tenant+date set and
// inserts the new one inside a single transaction, so readers never see a
// partially refreshed view.
package snapshot

import (
	"context"
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

// Repo provides snapshot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new snapshot repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// DeleteForDate removes all snapshot rows for a tenant and business date.
// Intended to run inside the refresh transaction.
func (r *Repo) DeleteForDate(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`DELETE FROM clocked_in_snapshot WHERE tenant_id = $1 AND business_date = $2`,
		tenantID, businessDate,
	)
	if err != nil {
		return fmt.Errorf("delete snapshot rows: %w", err)
	}

	return nil
}

const insertSQL = `
INSERT INTO clocked_in_snapshot (id, tenant_id, business_date, employee_account_id,
	employee_name, clock_in_time, location_name, department_name,
	hours_worked_so_far, cache_refresh_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// InsertBatch inserts snapshot rows using pgx.Batch. Intended to run inside
// the refresh transaction right after DeleteForDate.
func (r *Repo) InsertBatch(ctx context.Context, rows []domain.ClockedInSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range rows {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(insertSQL,
			id, s.TenantID, s.BusinessDate, s.EmployeeAccountID,
			s.EmployeeName, s.ClockInTime, s.LocationName, s.DepartmentName,
			s.HoursWorkedSoFar.InexactFloat64(), s.CacheRefreshTime,
		)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "snapshot", "batch")
		}
	}

	return nil
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const snapshotColumns = `id, tenant_id, business_date, employee_account_id,
	employee_name, clock_in_time, location_name, department_name,
	hours_worked_so_far, cache_refresh_time`

// List returns the snapshot rows for a tenant and business date, most
// recent clock-in first.
func (r *Repo) List(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) ([]domain.ClockedInSnapshot, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.
		Select(snapshotColumns).
		From("clocked_in_snapshot").
		Where(sq.Eq{"tenant_id": tenantID, "business_date": businessDate}).
		OrderBy("clock_in_time DESC", "employee_account_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshot: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanSnapshots(rows)
	if err != nil {
		return nil, fmt.Errorf("list snapshot: %w", err)
	}

	return snapshots, nil
}

// LastRefreshTime returns the most recent cache refresh time for a tenant
// and business date, or nil when no snapshot exists.
func (r *Repo) LastRefreshTime(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (*time.Time, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var last *time.Time
	err := q.QueryRow(ctx,
		`SELECT max(cache_refresh_time) FROM clocked_in_snapshot
		 WHERE tenant_id = $1 AND business_date = $2`,
		tenantID, businessDate,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("last refresh time: %w", err)
	}

	return last, nil
}

// Counts returns the clocked-in row count and the number of distinct
// locations for a tenant and business date.
func (r *Repo) Counts(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (clockedIn, locations int, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	err = q.QueryRow(ctx,
		`SELECT count(*), count(DISTINCT location_name)
		 FROM clocked_in_snapshot WHERE tenant_id = $1 AND business_date = $2`,
		tenantID, businessDate,
	).Scan(&clockedIn, &locations)
	if err != nil {
		return 0, 0, fmt.Errorf("snapshot counts: %w", err)
	}

	return clockedIn, locations, nil
}

func scanSnapshots(rows pgx.Rows) ([]domain.ClockedInSnapshot, error) {
	var result []domain.ClockedInSnapshot
	for rows.Next() {
		var (
			s     domain.ClockedInSnapshot
			hours float64
		)
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.BusinessDate, &s.EmployeeAccountID,
			&s.EmployeeName, &s.ClockInTime, &s.LocationName, &s.DepartmentName,
			&hours, &s.CacheRefreshTime,
		); err != nil {
			return nil, err
		}
		s.HoursWorkedSoFar = decimal.NewFromFloat(hours).Round(2)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.ClockedInSnapshot{}
	}

	return result, nil
}
