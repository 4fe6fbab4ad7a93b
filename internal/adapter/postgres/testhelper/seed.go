package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// NewTenantID returns a fresh tenant id. Tests get an isolated tenant each,
// so they can share the container without cross-contamination.
func NewTenantID() uuid.UUID {
	return uuid.New()
}

// SeedEmployee creates an active employee with generated identifiers.
// Returns the filled domain.Employee.
func SeedEmployee(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID) domain.Employee {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	payroll := "PR-" + suffix
	e := domain.Employee{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		ExternalEmployeeID: "emp-" + suffix,
		AccountID:          "acct-" + suffix,
		PayrollNumber:      &payroll,
		FirstName:          "Test",
		LastName:           "Employee " + suffix,
		RawPayload:         []byte(`{}`),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO employees (id, tenant_id, external_employee_id, account_id, payroll_number,
			first_name, last_name, raw_payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.ExternalEmployeeID, e.AccountID, e.PayrollNumber,
		e.FirstName, e.LastName, []byte(e.RawPayload), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedEmployee insert: %v", err)
	}

	return e
}

// SeedCostCenter creates one active cost center with the given id and name.
func SeedCostCenter(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, id int64, name string) domain.CostCenter {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.CostCenter{
		ID:        id,
		Name:      name,
		Code:      "cc-" + uniqueSuffix(),
		Level:     1,
		IsActive:  true,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO cost_centers (tenant_id, cost_center_id, name, code, parent_id, level, is_active, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tenantID, c.ID, c.Name, c.Code, c.ParentID, c.Level, c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCostCenter insert: %v", err)
	}

	return c
}

// SeedUnifiedEmployee creates one unified employee row with the given
// identifiers and origin.
func SeedUnifiedEmployee(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, accountID, payrollNumber *string, origin string) domain.UnifiedEmployee {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	dept := "Unified Dept " + suffix
	loc := "Unified Loc " + suffix
	u := domain.UnifiedEmployee{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AccountID:     accountID,
		PayrollNumber: payrollNumber,
		FullName:      "Unified Employee " + suffix,
		Department:    &dept,
		Location:      &loc,
		Origin:        origin,
		UpdatedAt:     now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO unified_employees (id, tenant_id, account_id, payroll_number, full_name,
			department, location, cost_center, origin, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.TenantID, u.AccountID, u.PayrollNumber, u.FullName,
		u.Department, u.Location, u.CostCenter, u.Origin, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUnifiedEmployee insert: %v", err)
	}

	return u
}

// SeedTimeEntry creates a clock-in style time entry for the given account
// on the given business date. The entry has a start time and no end time.
func SeedTimeEntry(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, accountID string, entryDate, startTime time.Time) domain.TimeEntry {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	start := startTime.UTC().Truncate(time.Microsecond)
	e := domain.TimeEntry{
		ID:                uuid.New(),
		TenantID:          tenantID,
		ExternalEntryID:   "entry-" + suffix,
		EmployeeAccountID: accountID,
		EntryType:         "regular_segment",
		EntryDate:         entryDate,
		StartTime:         &start,
		TotalHours:        decimal.Zero,
		ApprovalStatus:    domain.ApprovalPending,
		IsRaw:             true,
		RawPayload:        []byte(`{}`),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO time_entries (id, tenant_id, external_entry_id, employee_account_id, entry_type,
			entry_date, start_time, end_time, total_hours, approval_status, is_raw, is_calculated,
			raw_payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.TenantID, e.ExternalEntryID, e.EmployeeAccountID, e.EntryType,
		e.EntryDate, e.StartTime, e.EndTime, e.TotalHours.InexactFloat64(), e.ApprovalStatus,
		e.IsRaw, e.IsCalculated, []byte(e.RawPayload), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTimeEntry insert: %v", err)
	}

	return e
}
