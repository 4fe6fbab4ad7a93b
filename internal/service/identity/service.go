// Package identity resolves opaque employee identifiers and numeric
// cost-center ids into human-readable names, merging two independently
// synced upstream sources under a fixed priority order.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type employeeRepo interface {
	ListByIdentifiers(ctx context.Context, tenantID uuid.UUID, identifiers []string) ([]domain.Employee, error)
}

type unifiedRepo interface {
	ListByIdentifiers(ctx context.Context, tenantID uuid.UUID, identifiers []string) ([]domain.UnifiedEmployee, error)
}

type costCenterRepo interface {
	GetNamesByIDs(ctx context.Context, tenantID uuid.UUID, ids []int64) (map[int64]string, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// ccKey identifies one cost center across tenants for the batched loader.
type ccKey struct {
	Tenant uuid.UUID
	ID     int64
}

// Service implements identifier and cost-center name resolution.
type Service struct {
	log         *slog.Logger
	employees   employeeRepo
	unified     unifiedRepo
	costCenters costCenterRepo
	ccLoader    *dataloader.Loader[ccKey, string]
}

// NewService creates a new identity resolver service.
func NewService(
	logger *slog.Logger,
	employees employeeRepo,
	unified unifiedRepo,
	costCenters costCenterRepo,
) *Service {
	s := &Service{
		log:         logger.With("service", "identity"),
		employees:   employees,
		unified:     unified,
		costCenters: costCenters,
	}

	// Lookups from concurrent refreshes collapse into one query per batch
	// window. Caching is disabled: names must reflect the store on every
	// resolve, the loader is used purely for batching.
	s.ccLoader = dataloader.NewBatchedLoader(
		s.batchCostCenterNames,
		dataloader.WithCache[ccKey, string](&dataloader.NoCache[ccKey, string]{}),
		dataloader.WithWait[ccKey, string](2*time.Millisecond),
	)

	return s
}

// batchCostCenterNames is the dataloader batch function: one SQL query per
// tenant represented in the key batch. A missing or inactive cost center
// yields domain.ErrNotFound for its key.
func (s *Service) batchCostCenterNames(ctx context.Context, keys []ccKey) []*dataloader.Result[string] {
	byTenant := make(map[uuid.UUID][]int64)
	for _, key := range keys {
		byTenant[key.Tenant] = append(byTenant[key.Tenant], key.ID)
	}

	names := make(map[ccKey]string, len(keys))
	errs := make(map[uuid.UUID]error)
	for tenantID, ids := range byTenant {
		resolved, err := s.costCenters.GetNamesByIDs(ctx, tenantID, ids)
		if err != nil {
			errs[tenantID] = err
			continue
		}
		for id, name := range resolved {
			names[ccKey{Tenant: tenantID, ID: id}] = name
		}
	}

	results := make([]*dataloader.Result[string], len(keys))
	for i, key := range keys {
		if err, ok := errs[key.Tenant]; ok {
			results[i] = &dataloader.Result[string]{Error: err}
			continue
		}
		name, ok := names[key]
		if !ok {
			results[i] = &dataloader.Result[string]{Error: domain.ErrNotFound}
			continue
		}
		results[i] = &dataloader.Result[string]{Data: name}
	}

	return results
}

// ResolveCostCenterNames returns an id → name map for the given cost-center
// ids. Nulls and non-positive ids are filtered before lookup; ids without
// an active row are omitted from the result — callers synthesize their own
// fallback display string on a miss.
func (s *Service) ResolveCostCenterNames(ctx context.Context, tenantID uuid.UUID, ids []int64) (map[int64]string, error) {
	keys := make([]ccKey, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			keys = append(keys, ccKey{Tenant: tenantID, ID: id})
		}
	}
	if len(keys) == 0 {
		return map[int64]string{}, nil
	}

	// Dispatch all loads before resolving any thunk so the loader batches
	// them into a single query.
	thunks := make([]dataloader.Thunk[string], len(keys))
	for i, key := range keys {
		thunks[i] = s.ccLoader.Load(ctx, key)
	}

	names := make(map[int64]string, len(keys))
	for i, thunk := range thunks {
		name, err := thunk()
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		names[keys[i].ID] = name
	}

	return names, nil
}
