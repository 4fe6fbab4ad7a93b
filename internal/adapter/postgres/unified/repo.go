// Package unified reads the secondary unified employee table. The table is
// populated by an independent sync process; this repository never writes it.
package unified

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Repo provides read-only access to unified employee rows.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new unified employee reader.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const listByIdentifiersSQL = `
SELECT id, tenant_id, account_id, payroll_number, full_name,
       department, location, cost_center, origin, updated_at
FROM unified_employees
WHERE tenant_id = $1
  AND (account_id = ANY($2) OR payroll_number = ANY($2))`

// ListByIdentifiers returns unified rows whose account id OR payroll
// number matches any of the given identifiers. Used by the identity
// resolver as the secondary source.
func (r *Repo) ListByIdentifiers(ctx context.Context, tenantID uuid.UUID, identifiers []string) ([]domain.UnifiedEmployee, error) {
	if len(identifiers) == 0 {
		return []domain.UnifiedEmployee{}, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByIdentifiersSQL, tenantID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("list unified employees: %w", err)
	}
	defer rows.Close()

	unified, err := scanUnified(rows)
	if err != nil {
		return nil, fmt.Errorf("list unified employees: %w", err)
	}

	return unified, nil
}

func scanUnified(rows pgx.Rows) ([]domain.UnifiedEmployee, error) {
	var result []domain.UnifiedEmployee
	for rows.Next() {
		var u domain.UnifiedEmployee
		if err := rows.Scan(
			&u.ID, &u.TenantID, &u.AccountID, &u.PayrollNumber, &u.FullName,
			&u.Department, &u.Location, &u.CostCenter, &u.Origin, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.UnifiedEmployee{}
	}

	return result, nil
}
