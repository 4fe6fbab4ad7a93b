package snapshot_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/snapshot"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/testhelper"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*snapshot.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return snapshot.New(pool), pool
}

var businessDate = time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

func makeRow(account, name string, clockIn, refreshedAt time.Time) domain.ClockedInSnapshot {
	return domain.ClockedInSnapshot{
		EmployeeAccountID: account,
		EmployeeName:      name,
		BusinessDate:      businessDate,
		ClockInTime:       clockIn,
		LocationName:      "Main Street",
		DepartmentName:    "Kitchen",
		HoursWorkedSoFar:  decimal.RequireFromString("2.50"),
		CacheRefreshTime:  refreshedAt,
	}
}

// ---------------------------------------------------------------------------
// InsertBatch + List
// ---------------------------------------------------------------------------

func TestRepo_InsertBatch_AndList(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	refreshedAt := time.Date(2025, 8, 10, 17, 0, 0, 0, time.UTC)

	rows := []domain.ClockedInSnapshot{
		makeRow("acct-1", "Dana Reyes", time.Date(2025, 8, 10, 14, 0, 0, 0, time.UTC), refreshedAt),
		makeRow("acct-2", "Sam Ortiz", time.Date(2025, 8, 10, 15, 30, 0, 0, time.UTC), refreshedAt),
	}
	for i := range rows {
		rows[i].TenantID = tenantID
	}

	if err := repo.InsertBatch(ctx, rows); err != nil {
		t.Fatalf("InsertBatch: unexpected error: %v", err)
	}

	got, err := repo.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}

	// Most recent clock-in first.
	if got[0].EmployeeAccountID != "acct-2" {
		t.Errorf("expected acct-2 first (latest clock-in), got %s", got[0].EmployeeAccountID)
	}
	if !got[0].HoursWorkedSoFar.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("HoursWorkedSoFar mismatch: got %s", got[0].HoursWorkedSoFar)
	}
}

// ---------------------------------------------------------------------------
// Replace semantics
// ---------------------------------------------------------------------------

func TestRepo_DeleteThenInsert_ReplacesSet(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	txm := postgres.NewTxManager(pool)

	firstRefresh := time.Date(2025, 8, 10, 16, 0, 0, 0, time.UTC)
	first := []domain.ClockedInSnapshot{
		makeRow("acct-1", "Dana Reyes", time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC), firstRefresh),
		makeRow("acct-2", "Sam Ortiz", time.Date(2025, 8, 10, 10, 0, 0, 0, time.UTC), firstRefresh),
	}
	for i := range first {
		first[i].TenantID = tenantID
	}
	if err := repo.InsertBatch(ctx, first); err != nil {
		t.Fatalf("first InsertBatch: unexpected error: %v", err)
	}

	// Second refresh: acct-2 clocked out, acct-3 clocked in. The stored set
	// must be fully replaced, with no stale acct-2 row remaining.
	secondRefresh := firstRefresh.Add(2 * time.Minute)
	second := []domain.ClockedInSnapshot{
		makeRow("acct-1", "Dana Reyes", time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC), secondRefresh),
		makeRow("acct-3", "Lee Park", time.Date(2025, 8, 10, 15, 45, 0, 0, time.UTC), secondRefresh),
	}
	for i := range second {
		second[i].TenantID = tenantID
	}

	err := txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repo.DeleteForDate(txCtx, tenantID, businessDate); err != nil {
			return err
		}
		return repo.InsertBatch(txCtx, second)
	})
	if err != nil {
		t.Fatalf("replace transaction: unexpected error: %v", err)
	}

	got, err := repo.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows after replace, got %d", len(got))
	}
	for _, row := range got {
		if row.EmployeeAccountID == "acct-2" {
			t.Error("stale acct-2 row survived the replace")
		}
		if !row.CacheRefreshTime.Equal(secondRefresh) {
			t.Errorf("expected refresh time %s, got %s", secondRefresh, row.CacheRefreshTime)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats reads
// ---------------------------------------------------------------------------

func TestRepo_LastRefreshTimeAndCounts(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()

	// Empty cache: no refresh time, zero counts.
	last, err := repo.LastRefreshTime(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("LastRefreshTime: unexpected error: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil refresh time for empty cache, got %v", last)
	}

	refreshedAt := time.Date(2025, 8, 10, 17, 0, 0, 0, time.UTC)
	rows := []domain.ClockedInSnapshot{
		makeRow("acct-1", "Dana Reyes", time.Date(2025, 8, 10, 14, 0, 0, 0, time.UTC), refreshedAt),
		makeRow("acct-2", "Sam Ortiz", time.Date(2025, 8, 10, 15, 0, 0, 0, time.UTC), refreshedAt),
	}
	rows[1].LocationName = "Riverside"
	for i := range rows {
		rows[i].TenantID = tenantID
	}
	if err := repo.InsertBatch(ctx, rows); err != nil {
		t.Fatalf("InsertBatch: unexpected error: %v", err)
	}

	last, err = repo.LastRefreshTime(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("LastRefreshTime: unexpected error: %v", err)
	}
	if last == nil || !last.Equal(refreshedAt) {
		t.Fatalf("expected refresh time %s, got %v", refreshedAt, last)
	}

	clockedIn, locations, err := repo.Counts(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("Counts: unexpected error: %v", err)
	}
	if clockedIn != 2 {
		t.Errorf("clockedIn = %d, want 2", clockedIn)
	}
	if locations != 2 {
		t.Errorf("locations = %d, want 2", locations)
	}
}
