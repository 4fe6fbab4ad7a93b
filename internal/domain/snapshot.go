package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClockedInSnapshot is one row of the materialized "currently clocked in"
// view: (TenantID, BusinessDate, EmployeeAccountID) is unique. The set for
// a tenant+date is fully replaced on every refresh; it is derived state,
// not an audit log.
type ClockedInSnapshot struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	BusinessDate      time.Time
	EmployeeAccountID string
	EmployeeName      string
	ClockInTime       time.Time
	LocationName      string
	DepartmentName    string
	HoursWorkedSoFar  decimal.Decimal
	CacheRefreshTime  time.Time
}

// ClockObservation is one "employee is clocked in right now" observation
// supplied to a refresh. Location/department hints are optional display
// names reported by the clock feed itself; they are used only when the
// resolver cannot supply a name.
type ClockObservation struct {
	EmployeeAccountID      string
	ClockInTime            time.Time
	LocationCostCenterID   *int64
	DepartmentCostCenterID *int64
	LocationHint           *string
	DepartmentHint         *string
}

// SnapshotStats is the read-only health view of the snapshot cache.
//
// RefreshDurationMillis and SuccessRate are declared for forward
// compatibility but are not yet populated; they are always zero and must
// not be interpreted as measurements.
type SnapshotStats struct {
	LastRefreshTime      *time.Time
	TotalClockedIn       int
	TotalActiveLocations int
	TotalEmployees       int

	// Stale reports that the snapshot has never been refreshed or that
	// its last refresh is older than the configured stale threshold.
	Stale bool

	RefreshDurationMillis int64   // not yet implemented
	SuccessRate           float64 // not yet implemented
}
