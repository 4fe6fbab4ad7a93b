// Package costcenter implements the cost-center repository. Cost centers
// arrive in bulk from the vendor org export, so writes go through pgx.Batch.
package costcenter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Repo provides cost-center persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cost-center repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const upsertSQL = `
INSERT INTO cost_centers (tenant_id, cost_center_id, name, code, parent_id, level, is_active, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (tenant_id, cost_center_id) DO UPDATE
SET name       = EXCLUDED.name,
    code       = EXCLUDED.code,
    parent_id  = EXCLUDED.parent_id,
    level      = EXCLUDED.level,
    is_active  = EXCLUDED.is_active,
    updated_at = EXCLUDED.updated_at`

// UpsertBatch upserts cost centers using pgx.Batch, keyed by
// (tenant_id, cost_center_id). Returns the number of affected rows.
func (r *Repo) UpsertBatch(ctx context.Context, tenantID uuid.UUID, centers []domain.CostCenter) (int, error) {
	if len(centers) == 0 {
		return 0, nil
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	batch := &pgx.Batch{}
	for _, c := range centers {
		batch.Queue(upsertSQL,
			tenantID, c.ID, c.Name, c.Code, c.ParentID, c.Level, c.IsActive, now,
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// Upsert upserts a single cost center.
func (r *Repo) Upsert(ctx context.Context, tenantID uuid.UUID, c domain.CostCenter) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := q.Exec(ctx, upsertSQL,
		tenantID, c.ID, c.Name, c.Code, c.ParentID, c.Level, c.IsActive, now,
	)
	if err != nil {
		return postgres.MapError(err, "cost_center", fmt.Sprintf("%d", c.ID))
	}

	return nil
}

// GetByID returns one cost center by its vendor numeric id.
func (r *Repo) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*domain.CostCenter, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.CostCenter
	err := q.QueryRow(ctx,
		`SELECT cost_center_id, name, code, parent_id, level, is_active, updated_at
		 FROM cost_centers WHERE tenant_id = $1 AND cost_center_id = $2`,
		tenantID, id,
	).Scan(&c.ID, &c.Name, &c.Code, &c.ParentID, &c.Level, &c.IsActive, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("cost_center %d: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.MapError(err, "cost_center", fmt.Sprintf("%d", id))
	}

	return &c, nil
}

// GetNamesByIDs returns a map of cost-center id to display name for the
// given ids. Non-positive ids are skipped; inactive and unknown centers
// are simply absent from the result, callers fall back to a placeholder.
func (r *Repo) GetNamesByIDs(ctx context.Context, tenantID uuid.UUID, ids []int64) (map[int64]string, error) {
	valid := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return map[int64]string{}, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT cost_center_id, name FROM cost_centers
		 WHERE tenant_id = $1 AND cost_center_id = ANY($2) AND is_active`,
		tenantID, valid,
	)
	if err != nil {
		return nil, fmt.Errorf("get cost-center names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(valid))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("get cost-center names: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get cost-center names: %w", err)
	}

	return names, nil
}

// CountActive returns the number of active cost centers for a tenant.
func (r *Repo) CountActive(ctx context.Context, tenantID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM cost_centers WHERE tenant_id = $1 AND is_active`,
		tenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cost centers: %w", err)
	}

	return count, nil
}

func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec: %w", err)
		}
		affected += int(tag.RowsAffected())
	}

	return affected, nil
}
