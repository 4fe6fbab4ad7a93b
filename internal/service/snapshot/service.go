// Package snapshot maintains the clocked-in snapshot cache: a fast-to-read
// "who is clocked in right now" view rebuilt wholesale on every refresh.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type snapshotRepo interface {
	DeleteForDate(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) error
	InsertBatch(ctx context.Context, rows []domain.ClockedInSnapshot) error
	List(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) ([]domain.ClockedInSnapshot, error)
	LastRefreshTime(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (*time.Time, error)
	Counts(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (clockedIn, locations int, err error)
}

type identityResolver interface {
	ResolveIdentities(ctx context.Context, tenantID uuid.UUID, identifiers []string) (map[string]domain.ResolvedIdentity, error)
	ResolveCostCenterNames(ctx context.Context, tenantID uuid.UUID, ids []int64) (map[int64]string, error)
}

type employeeCounter interface {
	CountActive(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the snapshot cache refresh and read paths.
type Service struct {
	log       *slog.Logger
	snapshots snapshotRepo
	resolver  identityResolver
	employees employeeCounter
	tx        txManager
	cfg       config.SnapshotConfig

	// refreshLocks serializes Refresh/Clear per (tenant, businessDate) so
	// one refresh's delete can never interleave with another's insert.
	refreshLocks keyedMutex
}

// NewService creates a new snapshot cache service.
func NewService(
	logger *slog.Logger,
	snapshots snapshotRepo,
	resolver identityResolver,
	employees employeeCounter,
	tx txManager,
	cfg config.SnapshotConfig,
) *Service {
	return &Service{
		log:       logger.With("service", "snapshot"),
		snapshots: snapshots,
		resolver:  resolver,
		employees: employees,
		tx:        tx,
		cfg:       cfg,
	}
}

func lockKey(tenantID uuid.UUID, businessDate time.Time) string {
	return tenantID.String() + "|" + businessDate.Format("2006-01-02")
}
