package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Refresh rebuilds the snapshot for (tenant, businessDate) from the given
// clocked-in observations. The stored set is fully replaced: delete then
// insert inside one transaction, so readers see either the old set or the
// new one, never a mix. Concurrent refreshes for the same tenant and date
// are serialized. Returns the number of rows in the new snapshot.
func (s *Service) Refresh(ctx context.Context, tenantID uuid.UUID, businessDate time.Time, observations []domain.ClockObservation) (int, error) {
	businessDate = domain.BusinessDate(businessDate)
	observations = collapseObservations(observations)

	unlock := s.refreshLocks.Lock(lockKey(tenantID, businessDate))
	defer unlock()

	refreshTime := time.Now().UTC().Truncate(time.Microsecond)

	rows, err := s.buildRows(ctx, tenantID, businessDate, refreshTime, observations)
	if err != nil {
		return 0, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.snapshots.DeleteForDate(txCtx, tenantID, businessDate); err != nil {
			return err
		}
		return s.snapshots.InsertBatch(txCtx, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("refresh snapshot: %w", err)
	}

	s.log.Info("snapshot refreshed",
		"tenant_id", tenantID,
		"business_date", businessDate.Format("2006-01-02"),
		"clocked_in", len(rows),
	)

	return len(rows), nil
}

// Clear empties the snapshot for (tenant, businessDate).
func (s *Service) Clear(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) error {
	businessDate = domain.BusinessDate(businessDate)

	unlock := s.refreshLocks.Lock(lockKey(tenantID, businessDate))
	defer unlock()

	if err := s.snapshots.DeleteForDate(ctx, tenantID, businessDate); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	s.log.Info("snapshot cleared",
		"tenant_id", tenantID,
		"business_date", businessDate.Format("2006-01-02"),
	)

	return nil
}

// List returns the current snapshot rows for (tenant, businessDate).
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) ([]domain.ClockedInSnapshot, error) {
	return s.snapshots.List(ctx, tenantID, domain.BusinessDate(businessDate))
}

// Stats returns the health view of the snapshot cache. A snapshot that
// was never refreshed, or whose last refresh is older than the configured
// stale threshold, is reported as stale.
// RefreshDurationMillis and SuccessRate stay zero: they are declared
// placeholders, not measurements.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (*domain.SnapshotStats, error) {
	businessDate = domain.BusinessDate(businessDate)

	last, err := s.snapshots.LastRefreshTime(ctx, tenantID, businessDate)
	if err != nil {
		return nil, fmt.Errorf("snapshot stats: %w", err)
	}

	clockedIn, locations, err := s.snapshots.Counts(ctx, tenantID, businessDate)
	if err != nil {
		return nil, fmt.Errorf("snapshot stats: %w", err)
	}

	employees, err := s.employees.CountActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("snapshot stats: %w", err)
	}

	return &domain.SnapshotStats{
		LastRefreshTime:      last,
		TotalClockedIn:       clockedIn,
		TotalActiveLocations: locations,
		TotalEmployees:       employees,
		Stale:                last == nil || time.Since(*last) > s.cfg.StaleThreshold,
	}, nil
}

// collapseObservations reduces the input to one observation per employee,
// keeping the earliest clock-in. The snapshot holds one row per
// (tenant, date, account), so overlapping open shifts from any trigger
// must merge here rather than violate that uniqueness on insert.
func collapseObservations(observations []domain.ClockObservation) []domain.ClockObservation {
	if len(observations) < 2 {
		return observations
	}

	index := make(map[string]int, len(observations))
	collapsed := make([]domain.ClockObservation, 0, len(observations))
	for _, obs := range observations {
		i, seen := index[obs.EmployeeAccountID]
		if !seen {
			index[obs.EmployeeAccountID] = len(collapsed)
			collapsed = append(collapsed, obs)
			continue
		}
		if obs.ClockInTime.Before(collapsed[i].ClockInTime) {
			collapsed[i] = obs
		}
	}
	return collapsed
}

// buildRows resolves names for every observation and assembles the rows to
// insert. Resolution misses fall back to the observation's hints, then to a
// placeholder synthesized from the raw id.
func (s *Service) buildRows(ctx context.Context, tenantID uuid.UUID, businessDate, refreshTime time.Time, observations []domain.ClockObservation) ([]domain.ClockedInSnapshot, error) {
	identifiers := make([]string, 0, len(observations))
	var ccIDs []int64
	for _, obs := range observations {
		identifiers = append(identifiers, obs.EmployeeAccountID)
		if obs.LocationCostCenterID != nil {
			ccIDs = append(ccIDs, *obs.LocationCostCenterID)
		}
		if obs.DepartmentCostCenterID != nil {
			ccIDs = append(ccIDs, *obs.DepartmentCostCenterID)
		}
	}

	identities, err := s.resolver.ResolveIdentities(ctx, tenantID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}

	ccNames, err := s.resolver.ResolveCostCenterNames(ctx, tenantID, ccIDs)
	if err != nil {
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}

	rows := make([]domain.ClockedInSnapshot, 0, len(observations))
	for _, obs := range observations {
		identity, matched := identities[obs.EmployeeAccountID]

		name := obs.EmployeeAccountID
		var identityDept, identityLoc *string
		if matched {
			name = identity.Name
			identityDept = identity.Department
			identityLoc = identity.Location
		}

		rows = append(rows, domain.ClockedInSnapshot{
			TenantID:          tenantID,
			BusinessDate:      businessDate,
			EmployeeAccountID: obs.EmployeeAccountID,
			EmployeeName:      name,
			ClockInTime:       obs.ClockInTime,
			LocationName:      displayName(ccNames, obs.LocationCostCenterID, identityLoc, obs.LocationHint, "Location"),
			DepartmentName:    displayName(ccNames, obs.DepartmentCostCenterID, identityDept, obs.DepartmentHint, "Department"),
			HoursWorkedSoFar:  domain.HoursBetween(obs.ClockInTime, refreshTime),
			CacheRefreshTime:  refreshTime,
		})
	}

	return rows, nil
}

// displayName picks a display string for a location or department slot:
// resolved cost-center name, then the identity's own field, then the
// observation hint, then "<kind> <id>" when only the raw id is known.
func displayName(ccNames map[int64]string, ccID *int64, identityField, hint *string, kind string) string {
	if ccID != nil {
		if name, ok := ccNames[*ccID]; ok {
			return name
		}
	}
	if identityField != nil && *identityField != "" {
		return *identityField
	}
	if hint != nil && *hint != "" {
		return *hint
	}
	if ccID != nil {
		return fmt.Sprintf("%s %d", kind, *ccID)
	}
	return "Unknown"
}
