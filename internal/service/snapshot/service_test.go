package snapshot_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/costcenter"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/employee"
	snapshotrepo "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/snapshot"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/testhelper"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/unified"
	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/identity"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/snapshot"
)

var businessDate = time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

// newSnapshotService wires the cache against a real database with the real
// identity resolver.
func newSnapshotService(t *testing.T) (*snapshot.Service, *pgxpool.Pool) {
	t.Helper()
	return newSnapshotServiceWithThreshold(t, 10*time.Minute)
}

func newSnapshotServiceWithThreshold(t *testing.T, staleThreshold time.Duration) (*snapshot.Service, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	resolver := identity.NewService(logger, employee.New(pool), unified.New(pool), costcenter.New(pool))
	svc := snapshot.NewService(
		logger,
		snapshotrepo.New(pool),
		resolver,
		employee.New(pool),
		postgres.NewTxManager(pool),
		config.SnapshotConfig{RefreshInterval: time.Minute, StaleThreshold: staleThreshold},
	)
	return svc, pool
}

func observation(accountID string, clockIn time.Time) domain.ClockObservation {
	return domain.ClockObservation{
		EmployeeAccountID: accountID,
		ClockInTime:       clockIn,
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestRefresh_ResolvesNamesAndComputesHours(t *testing.T) {
	t.Parallel()
	svc, pool := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	emp := testhelper.SeedEmployee(t, pool, tenantID)
	cc := testhelper.SeedCostCenter(t, pool, tenantID, 701, "Main Street")

	clockIn := time.Now().UTC().Add(-150 * time.Minute)
	obs := observation(emp.AccountID, clockIn)
	obs.LocationCostCenterID = &cc.ID

	n, err := svc.Refresh(ctx, tenantID, businessDate, []domain.ClockObservation{obs})
	if err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 snapshot row, got %d", n)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.EmployeeName != emp.FullName() {
		t.Errorf("EmployeeName = %q, want %q", row.EmployeeName, emp.FullName())
	}
	if row.LocationName != "Main Street" {
		t.Errorf("LocationName = %q, want Main Street", row.LocationName)
	}

	// 150 minutes on the clock, rounded to 2 decimals.
	want := decimal.RequireFromString("2.5")
	if row.HoursWorkedSoFar.Sub(want).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		t.Errorf("HoursWorkedSoFar = %s, want about %s", row.HoursWorkedSoFar, want)
	}
}

func TestRefresh_FallbacksOnResolutionMiss(t *testing.T) {
	t.Parallel()
	svc, _ := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	clockIn := time.Now().UTC().Add(-time.Hour)

	unknownCC := int64(88001)
	deptHint := "Night Crew"
	obs := domain.ClockObservation{
		EmployeeAccountID:      "acct-stranger",
		ClockInTime:            clockIn,
		LocationCostCenterID:   &unknownCC,
		DepartmentHint:         &deptHint,
	}

	if _, err := svc.Refresh(ctx, tenantID, businessDate, []domain.ClockObservation{obs}); err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.EmployeeName != "acct-stranger" {
		t.Errorf("unresolved employee should fall back to the raw id, got %q", row.EmployeeName)
	}
	if row.LocationName != "Location 88001" {
		t.Errorf("LocationName = %q, want synthesized placeholder", row.LocationName)
	}
	if row.DepartmentName != "Night Crew" {
		t.Errorf("DepartmentName = %q, want the observation hint", row.DepartmentName)
	}
}

func TestRefresh_CollapsesDuplicateObservations(t *testing.T) {
	t.Parallel()
	svc, _ := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	earlier := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Microsecond)
	later := earlier.Add(90 * time.Minute)

	// Two open shifts for the same employee must merge onto the earliest
	// clock-in instead of tripping the per-employee uniqueness on insert.
	obs := []domain.ClockObservation{
		observation("acct-dup", later),
		observation("acct-dup", earlier),
		observation("acct-other", later),
	}

	n, err := svc.Refresh(ctx, tenantID, businessDate, obs)
	if err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 snapshot rows, got %d", n)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	for _, row := range rows {
		if row.EmployeeAccountID == "acct-dup" && !row.ClockInTime.Equal(earlier) {
			t.Errorf("duplicate should keep the earliest clock-in, got %v", row.ClockInTime)
		}
	}
}

func TestRefresh_FullyReplacesPreviousSet(t *testing.T) {
	t.Parallel()
	svc, _ := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	clockIn := time.Now().UTC().Add(-2 * time.Hour)

	first := []domain.ClockObservation{
		observation("acct-a", clockIn),
		observation("acct-b", clockIn),
	}
	if _, err := svc.Refresh(ctx, tenantID, businessDate, first); err != nil {
		t.Fatalf("first Refresh: unexpected error: %v", err)
	}

	// acct-b clocked out, acct-c clocked in.
	second := []domain.ClockObservation{
		observation("acct-a", clockIn),
		observation("acct-c", time.Now().UTC().Add(-10*time.Minute)),
	}
	if _, err := svc.Refresh(ctx, tenantID, businessDate, second); err != nil {
		t.Fatalf("second Refresh: unexpected error: %v", err)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after replace, got %d", len(rows))
	}
	for _, row := range rows {
		if row.EmployeeAccountID == "acct-b" {
			t.Error("clocked-out employee survived the replace")
		}
	}
}

func TestRefresh_EmptyObservationsEmptiesSnapshot(t *testing.T) {
	t.Parallel()
	svc, _ := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	obs := []domain.ClockObservation{observation("acct-x", time.Now().UTC().Add(-time.Hour))}
	if _, err := svc.Refresh(ctx, tenantID, businessDate, obs); err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}

	n, err := svc.Refresh(ctx, tenantID, businessDate, nil)
	if err != nil {
		t.Fatalf("empty Refresh: unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty snapshot, got %d rows", len(rows))
	}
}

// TestRefresh_ConcurrentCallsSerialized hammers Refresh from several
// goroutines. Serialization per (tenant, date) means every call must
// succeed (no unique-constraint collisions from interleaved delete/insert)
// and the final set must be exactly one refresh's output.
func TestRefresh_ConcurrentCallsSerialized(t *testing.T) {
	t.Parallel()
	svc, _ := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	clockIn := time.Now().UTC().Add(-time.Hour)
	obs := []domain.ClockObservation{
		observation("acct-c1", clockIn),
		observation("acct-c2", clockIn),
		observation("acct-c3", clockIn),
	}

	const workers = 8
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, tenantID, businessDate, obs)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent Refresh failed: %v", err)
		}
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected exactly 3 rows, got %d", len(rows))
	}
}

// ---------------------------------------------------------------------------
// Clear + Stats
// ---------------------------------------------------------------------------

func TestClearAndStats(t *testing.T) {
	t.Parallel()
	svc, pool := newSnapshotService(t)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	emp := testhelper.SeedEmployee(t, pool, tenantID)

	// Empty cache reports zeros and no refresh time.
	stats, err := svc.Stats(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("Stats: unexpected error: %v", err)
	}
	if stats.LastRefreshTime != nil || stats.TotalClockedIn != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
	if !stats.Stale {
		t.Error("a never-refreshed snapshot must report stale")
	}
	if stats.TotalEmployees != 1 {
		t.Errorf("TotalEmployees = %d, want 1", stats.TotalEmployees)
	}

	obs := []domain.ClockObservation{observation(emp.AccountID, time.Now().UTC().Add(-time.Hour))}
	if _, err := svc.Refresh(ctx, tenantID, businessDate, obs); err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}

	stats, err = svc.Stats(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("Stats after refresh: unexpected error: %v", err)
	}
	if stats.LastRefreshTime == nil {
		t.Error("expected LastRefreshTime set after refresh")
	}
	if stats.TotalClockedIn != 1 {
		t.Errorf("TotalClockedIn = %d, want 1", stats.TotalClockedIn)
	}
	if stats.Stale {
		t.Error("a just-refreshed snapshot must not report stale")
	}
	if stats.RefreshDurationMillis != 0 || stats.SuccessRate != 0 {
		t.Error("placeholder stats fields must stay zero")
	}

	if err := svc.Clear(ctx, tenantID, businessDate); err != nil {
		t.Fatalf("Clear: unexpected error: %v", err)
	}

	rows, err := svc.List(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty snapshot after clear, got %d rows", len(rows))
	}
}

func TestStats_ReportsStaleAfterThreshold(t *testing.T) {
	t.Parallel()
	// A nanosecond threshold is long expired by the time Stats reads the
	// refresh time back, without sleeping in the test.
	svc, _ := newSnapshotServiceWithThreshold(t, time.Nanosecond)
	ctx := context.Background()

	tenantID := testhelper.NewTenantID()
	obs := []domain.ClockObservation{observation("acct-stale", time.Now().UTC().Add(-time.Hour))}
	if _, err := svc.Refresh(ctx, tenantID, businessDate, obs); err != nil {
		t.Fatalf("Refresh: unexpected error: %v", err)
	}

	stats, err := svc.Stats(ctx, tenantID, businessDate)
	if err != nil {
		t.Fatalf("Stats: unexpected error: %v", err)
	}
	if stats.LastRefreshTime == nil {
		t.Fatal("expected LastRefreshTime set after refresh")
	}
	if !stats.Stale {
		t.Error("a refresh older than the threshold must report stale")
	}
	if stats.TotalClockedIn != 1 {
		t.Errorf("TotalClockedIn = %d, want 1", stats.TotalClockedIn)
	}
}
