// Package employee implements the HCM-sourced Employee repository.
package employee

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Repo provides employee persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new employee repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const employeeColumns = `id, tenant_id, external_employee_id, account_id, payroll_number,
	first_name, last_name, email, department_cost_center_id, department_name,
	location_cost_center_id, location_name, hire_date, pay_type, raw_payload,
	deactivated_at, created_at, updated_at`

const upsertSQL = `
INSERT INTO employees (id, tenant_id, external_employee_id, account_id, payroll_number,
	first_name, last_name, email, department_cost_center_id, department_name,
	location_cost_center_id, location_name, hire_date, pay_type, raw_payload,
	deactivated_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (tenant_id, external_employee_id) DO UPDATE
SET account_id                = EXCLUDED.account_id,
    payroll_number            = EXCLUDED.payroll_number,
    first_name                = EXCLUDED.first_name,
    last_name                 = EXCLUDED.last_name,
    email                     = EXCLUDED.email,
    department_cost_center_id = EXCLUDED.department_cost_center_id,
    department_name           = EXCLUDED.department_name,
    location_cost_center_id   = EXCLUDED.location_cost_center_id,
    location_name             = EXCLUDED.location_name,
    hire_date                 = EXCLUDED.hire_date,
    pay_type                  = EXCLUDED.pay_type,
    raw_payload               = EXCLUDED.raw_payload,
    deactivated_at            = EXCLUDED.deactivated_at,
    updated_at                = EXCLUDED.updated_at`

// Upsert inserts or updates one employee, keyed by
// (tenant_id, external_employee_id).
func (r *Repo) Upsert(ctx context.Context, e domain.Employee) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := q.Exec(ctx, upsertSQL,
		id, e.TenantID, e.ExternalEmployeeID, e.AccountID, e.PayrollNumber,
		e.FirstName, e.LastName, e.Email, e.DepartmentCostCenterID, e.DepartmentName,
		e.LocationCostCenterID, e.LocationName, e.HireDate, e.PayType, []byte(e.RawPayload),
		e.DeactivatedAt, now, now,
	)
	if err != nil {
		return postgres.MapError(err, "employee", e.ExternalEmployeeID)
	}

	return nil
}

// Deactivate soft-deactivates an employee. Employees are never hard-deleted.
// Returns domain.ErrNotFound when the employee does not exist.
func (r *Repo) Deactivate(ctx context.Context, tenantID uuid.UUID, externalID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE employees SET deactivated_at = now(), updated_at = now()
		 WHERE tenant_id = $1 AND external_employee_id = $2 AND deactivated_at IS NULL`,
		tenantID, externalID,
	)
	if err != nil {
		return postgres.MapError(err, "employee", externalID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %s: %w", externalID, domain.ErrNotFound)
	}

	return nil
}

// GetByExternalID returns an employee by vendor id within a tenant.
func (r *Repo) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*domain.Employee, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql := fmt.Sprintf(`SELECT %s FROM employees WHERE tenant_id = $1 AND external_employee_id = $2`, employeeColumns)
	rows, err := q.Query(ctx, sql, tenantID, externalID)
	if err != nil {
		return nil, postgres.MapError(err, "employee", externalID)
	}
	defer rows.Close()

	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, postgres.MapError(err, "employee", externalID)
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("employee %s: %w", externalID, domain.ErrNotFound)
	}

	e := employees[0]
	return &e, nil
}

// ListByIdentifiers returns active employees whose time-clock account id
// OR payroll number matches any of the given identifiers. Used by the
// identity resolver as the primary source.
func (r *Repo) ListByIdentifiers(ctx context.Context, tenantID uuid.UUID, identifiers []string) ([]domain.Employee, error) {
	if len(identifiers) == 0 {
		return []domain.Employee{}, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql := fmt.Sprintf(`SELECT %s FROM employees
		WHERE tenant_id = $1
		  AND deactivated_at IS NULL
		  AND (account_id = ANY($2) OR payroll_number = ANY($2))`, employeeColumns)

	rows, err := q.Query(ctx, sql, tenantID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("list employees by identifiers: %w", err)
	}
	defer rows.Close()

	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, fmt.Errorf("list employees by identifiers: %w", err)
	}

	return employees, nil
}

// CountActive returns the number of active employees for a tenant.
func (r *Repo) CountActive(ctx context.Context, tenantID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM employees WHERE tenant_id = $1 AND deactivated_at IS NULL`,
		tenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}

	return count, nil
}

// scanEmployees scans rows into domain.Employee values.
func scanEmployees(rows pgx.Rows) ([]domain.Employee, error) {
	var employees []domain.Employee
	for rows.Next() {
		var (
			e          domain.Employee
			rawPayload []byte
		)

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ExternalEmployeeID, &e.AccountID, &e.PayrollNumber,
			&e.FirstName, &e.LastName, &e.Email, &e.DepartmentCostCenterID, &e.DepartmentName,
			&e.LocationCostCenterID, &e.LocationName, &e.HireDate, &e.PayType, &rawPayload,
			&e.DeactivatedAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}

		e.RawPayload = json.RawMessage(rawPayload)
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if employees == nil {
		employees = []domain.Employee{}
	}

	return employees, nil
}
