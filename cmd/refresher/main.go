// Command refresher periodically rebuilds the clocked-in snapshot for a
// fixed set of tenants. The snapshot core never schedules itself; this
// binary is the external trigger, driven by a constant-delay cron.
//
// Flags:
//
//	--tenants  comma-separated tenant UUIDs to refresh (required)
//
// Exit codes: 0 = clean shutdown, 1 = startup error.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/costcenter"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/employee"
	snapshotrepo "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/snapshot"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/timeentry"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/unified"
	"github.com/shiftmirror/shiftmirror-backend/internal/app"
	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/identity"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/snapshot"
)

func main() {
	tenantsFlag := flag.String("tenants", "", "comma-separated tenant UUIDs to refresh")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	tenants, err := parseTenants(*tenantsFlag)
	if err != nil {
		logger.Error("parse --tenants", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	employees := employee.New(pool)
	entries := timeentry.New(pool)
	resolver := identity.NewService(logger, employees, unified.New(pool), costcenter.New(pool))
	snapshots := snapshot.NewService(
		logger,
		snapshotrepo.New(pool),
		resolver,
		employees,
		postgres.NewTxManager(pool),
		cfg.Snapshot,
	)

	refreshAll := func() {
		businessDate := domain.BusinessDate(time.Now())
		for _, tenantID := range tenants {
			if err := refreshTenant(ctx, entries, snapshots, tenantID, businessDate); err != nil {
				logger.Error("refresh failed",
					slog.String("tenant_id", tenantID.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	// One pass up front, then on the configured cadence.
	refreshAll()

	c := cron.New()
	c.Schedule(cron.Every(cfg.Snapshot.RefreshInterval), cron.FuncJob(refreshAll))
	c.Start()

	logger.Info("refresher started",
		slog.Int("tenants", len(tenants)),
		slog.Duration("interval", cfg.Snapshot.RefreshInterval),
	)

	<-ctx.Done()

	// Let an in-flight pass finish before exiting.
	<-c.Stop().Done()
	logger.Info("refresher stopped")
}

// refreshTenant derives the live clock state from open time entries and
// feeds it to the snapshot cache.
func refreshTenant(ctx context.Context, entries *timeentry.Repo, snapshots *snapshot.Service, tenantID uuid.UUID, businessDate time.Time) error {
	open, err := entries.ListOpen(ctx, tenantID, businessDate)
	if err != nil {
		return err
	}

	// Overlapping open entries for one employee are collapsed onto the
	// earliest clock-in by the snapshot service itself.
	observations := make([]domain.ClockObservation, 0, len(open))
	for _, e := range open {
		if e.StartTime == nil {
			continue
		}
		observations = append(observations, domain.ClockObservation{
			EmployeeAccountID:      e.EmployeeAccountID,
			ClockInTime:            *e.StartTime,
			LocationCostCenterID:   e.LocationCostCenterID,
			DepartmentCostCenterID: e.DepartmentCostCenterID,
		})
	}

	_, err = snapshots.Refresh(ctx, tenantID, businessDate, observations)
	return err
}

func parseTenants(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	tenants := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	if len(tenants) == 0 {
		return nil, errMissingTenants
	}
	return tenants, nil
}

var errMissingTenants = errors.New("at least one tenant UUID is required")
