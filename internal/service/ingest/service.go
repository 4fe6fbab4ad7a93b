// Package ingest implements the ingestion pipeline: normalizing vendor
// timesheet payloads into candidate records and reconciling them into
// durable storage with per-item error isolation.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type timeEntryRepo interface {
	Upsert(ctx context.Context, e domain.TimeEntry) error
}

type employeeRepo interface {
	Upsert(ctx context.Context, e domain.Employee) error
	Deactivate(ctx context.Context, tenantID uuid.UUID, externalID string) error
}

type costCenterRepo interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, c domain.CostCenter) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements payload normalization and batch reconciliation.
type Service struct {
	log         *slog.Logger
	entries     timeEntryRepo
	employees   employeeRepo
	costCenters costCenterRepo
	tx          txManager
	cfg         config.IngestConfig
}

// NewService creates a new ingest service.
func NewService(
	logger *slog.Logger,
	entries timeEntryRepo,
	employees employeeRepo,
	costCenters costCenterRepo,
	tx txManager,
	cfg config.IngestConfig,
) *Service {
	return &Service{
		log:         logger.With("service", "ingest"),
		entries:     entries,
		employees:   employees,
		costCenters: costCenters,
		tx:          tx,
		cfg:         cfg,
	}
}
