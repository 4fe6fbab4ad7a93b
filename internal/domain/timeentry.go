package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeEntry is one time-clock record mirrored from the HCM vendor.
// The idempotency key is (TenantID, ExternalEntryID): re-ingesting the same
// external id updates the stored row in place (last write wins).
type TimeEntry struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	ExternalEntryID        string
	EmployeeAccountID      string
	EntryType              string
	EntryDate              time.Time // calendar date at UTC midnight
	StartTime              *time.Time
	EndTime                *time.Time
	TotalHours             decimal.Decimal // derived from vendor milliseconds, 2 dp, within [0, 24]
	ApprovalStatus         string
	IsRaw                  bool
	IsCalculated           bool
	LocationCostCenterID   *int64
	DepartmentCostCenterID *int64
	RawPayload             json.RawMessage // vendor entry kept verbatim for audit
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Approval statuses as the vendor reports them.
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// millisPerHour is the vendor's duration unit ratio (elapsed milliseconds).
var millisPerHour = decimal.NewFromInt(3_600_000)

// maxMillis is one full day in the vendor's unit.
const maxMillis = 24 * 3_600_000

// maxHours caps a single entry's duration at one full day.
var maxHours = decimal.NewFromInt(24)

// HoursFromMilliseconds converts a vendor duration in milliseconds to
// fractional hours rounded to 2 decimal places. Values outside [0h, 24h]
// are clamped rather than rejected; the second return reports whether
// clamping happened so callers can log the anomaly. The range check runs
// on the raw milliseconds: even a coercion too small to survive rounding
// (say -500 ms, or a few seconds past 24 h) must stay observable.
func HoursFromMilliseconds(ms int64) (decimal.Decimal, bool) {
	if ms < 0 {
		return decimal.Zero, true
	}
	if ms > maxMillis {
		return maxHours, true
	}
	return decimal.NewFromInt(ms).Div(millisPerHour).Round(2), false
}

// HoursBetween returns the elapsed hours from start to end, rounded to
// 2 decimal places and clamped to [0, 24] like any other duration.
func HoursBetween(start, end time.Time) decimal.Decimal {
	h, _ := HoursFromMilliseconds(end.Sub(start).Milliseconds())
	return h
}

// BusinessDate truncates a timestamp to its calendar date at UTC midnight.
// All entry dates are stored this way so repeated ingests of the same
// business day cannot drift across timezones.
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
