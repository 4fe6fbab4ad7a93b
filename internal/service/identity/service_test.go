package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/costcenter"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/employee"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/testhelper"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/unified"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/identity"
)

// newIdentityService wires the resolver against a real database.
func newIdentityService(t *testing.T) (*identity.Service, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := identity.NewService(
		logger,
		employee.New(pool),
		unified.New(pool),
		costcenter.New(pool),
	)
	return svc, pool
}

// ---------------------------------------------------------------------------
// Identity merge
// ---------------------------------------------------------------------------

func TestResolveIdentities_PrimaryBeatsUnified(t *testing.T) {
	t.Parallel()
	svc, pool := newIdentityService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	emp := testhelper.SeedEmployee(t, pool, tenantID)
	// Same account id also present in the unified table with different data.
	testhelper.SeedUnifiedEmployee(t, pool, tenantID, &emp.AccountID, nil, domain.OriginPayroll)

	got, err := svc.ResolveIdentities(ctx, tenantID, []string{emp.AccountID})
	if err != nil {
		t.Fatalf("ResolveIdentities: unexpected error: %v", err)
	}

	resolved, ok := got[emp.AccountID]
	if !ok {
		t.Fatalf("identifier %s missing from result", emp.AccountID)
	}
	if resolved.Name != emp.FullName() {
		t.Errorf("primary row must win: Name = %q, want %q", resolved.Name, emp.FullName())
	}
	if resolved.EmployeeID != emp.ExternalEmployeeID {
		t.Errorf("EmployeeID = %q, want %q", resolved.EmployeeID, emp.ExternalEmployeeID)
	}
	if resolved.Provenance != domain.ProvenanceBoth {
		t.Errorf("identifier in both sources: Provenance = %q, want %q", resolved.Provenance, domain.ProvenanceBoth)
	}
}

func TestResolveIdentities_UnifiedOnly(t *testing.T) {
	t.Parallel()
	svc, pool := newIdentityService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	payroll := "PR-u-1"
	row := testhelper.SeedUnifiedEmployee(t, pool, tenantID, nil, &payroll, domain.OriginPayroll)

	got, err := svc.ResolveIdentities(ctx, tenantID, []string{payroll})
	if err != nil {
		t.Fatalf("ResolveIdentities: unexpected error: %v", err)
	}

	resolved, ok := got[payroll]
	if !ok {
		t.Fatalf("identifier %s missing from result", payroll)
	}
	if resolved.Name != row.FullName {
		t.Errorf("Name = %q, want %q", resolved.Name, row.FullName)
	}
	if resolved.Provenance != domain.ProvenancePayroll {
		t.Errorf("Provenance = %q, want %q", resolved.Provenance, domain.ProvenancePayroll)
	}
	if resolved.Department == nil || *resolved.Department != *row.Department {
		t.Errorf("Department = %v, want %v", resolved.Department, row.Department)
	}
}

func TestResolveIdentities_HCMOriginOutranksPayrollOrigin(t *testing.T) {
	t.Parallel()
	svc, pool := newIdentityService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	account := "acct-rank-1"
	hcmRow := testhelper.SeedUnifiedEmployee(t, pool, tenantID, &account, nil, domain.OriginHCM)
	testhelper.SeedUnifiedEmployee(t, pool, tenantID, &account, nil, domain.OriginPayroll)

	got, err := svc.ResolveIdentities(ctx, tenantID, []string{account})
	if err != nil {
		t.Fatalf("ResolveIdentities: unexpected error: %v", err)
	}

	resolved, ok := got[account]
	if !ok {
		t.Fatalf("identifier %s missing from result", account)
	}
	if resolved.Name != hcmRow.FullName {
		t.Errorf("hcm-tagged unified row must outrank payroll-tagged: Name = %q, want %q", resolved.Name, hcmRow.FullName)
	}
}

func TestResolveIdentities_UnmatchedIdentifierAbsent(t *testing.T) {
	t.Parallel()
	svc, pool := newIdentityService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	emp := testhelper.SeedEmployee(t, pool, tenantID)

	got, err := svc.ResolveIdentities(ctx, tenantID, []string{emp.AccountID, "acct-nobody"})
	if err != nil {
		t.Fatalf("ResolveIdentities: unexpected error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 resolved identity, got %d", len(got))
	}
	if _, ok := got["acct-nobody"]; ok {
		t.Error("unmatched identifier must be absent, not an error entry")
	}
}

func TestResolveIdentities_EmptyInput(t *testing.T) {
	t.Parallel()
	svc, _ := newIdentityService(t)

	got, err := svc.ResolveIdentities(context.Background(), testhelper.NewTenantID(), nil)
	if err != nil {
		t.Fatalf("ResolveIdentities: unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Cost-center names
// ---------------------------------------------------------------------------

func TestResolveCostCenterNames(t *testing.T) {
	t.Parallel()
	svc, pool := newIdentityService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	testhelper.SeedCostCenter(t, pool, tenantID, 601, "Front Desk")
	testhelper.SeedCostCenter(t, pool, tenantID, 602, "Warehouse")

	names, err := svc.ResolveCostCenterNames(ctx, tenantID, []int64{601, 602, 999, 0, -3})
	if err != nil {
		t.Fatalf("ResolveCostCenterNames: unexpected error: %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	if names[601] != "Front Desk" || names[602] != "Warehouse" {
		t.Errorf("unexpected names: %v", names)
	}
	if _, ok := names[999]; ok {
		t.Error("unknown id must be omitted so callers can synthesize a fallback")
	}
}

func TestResolveCostCenterNames_AllFiltered(t *testing.T) {
	t.Parallel()
	svc, _ := newIdentityService(t)

	names, err := svc.ResolveCostCenterNames(context.Background(), testhelper.NewTenantID(), []int64{0, -1})
	if err != nil {
		t.Fatalf("ResolveCostCenterNames: unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty map, got %v", names)
	}
}
