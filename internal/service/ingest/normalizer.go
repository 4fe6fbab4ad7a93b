package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/hcm"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// dateLayout is the leading calendar component every vendor date or
// datetime string must start with.
const dateLayout = "2006-01-02"

// NormalizeResult is the output of one payload normalization: the candidate
// entries that passed validation plus the per-entry rejections. Rejections
// never abort sibling entries.
type NormalizeResult struct {
	Candidates []domain.TimeEntry
	Errors     []domain.BatchItemError
}

// NormalizeTimesheets flattens the vendor's per-employee entry sets into
// candidate time entries for the given tenant. Entries missing a required
// field (external id, date, type, or the set's employee identifier) are
// recorded in the error list, keyed by entry id or a positional marker when
// the id itself is absent.
func (s *Service) NormalizeTimesheets(tenantID uuid.UUID, payload *hcm.TimesheetPayload) NormalizeResult {
	var res NormalizeResult

	position := 0
	for _, set := range payload.EntrySets {
		for _, raw := range set.Entries {
			candidate, itemErr := s.normalizeEntry(tenantID, set.Employee.AccountID, raw, position)
			position++

			if itemErr != nil {
				res.Errors = append(res.Errors, *itemErr)
				continue
			}
			res.Candidates = append(res.Candidates, *candidate)
		}
	}

	return res
}

// normalizeEntry validates and converts one raw vendor entry. position is
// the entry's index across the whole payload, used as the error key when
// the entry carries no id.
func (s *Service) normalizeEntry(tenantID uuid.UUID, accountID string, raw json.RawMessage, position int) (*domain.TimeEntry, *domain.BatchItemError) {
	marker := fmt.Sprintf("entry[%d]", position)

	var entry hcm.RawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, &domain.BatchItemError{Key: marker, Reason: "malformed entry JSON"}
	}

	key := entry.ID
	if key == "" {
		key = marker
	}

	if entry.ID == "" {
		return nil, &domain.BatchItemError{Key: key, Reason: "missing entry id"}
	}
	if accountID == "" {
		return nil, &domain.BatchItemError{Key: key, Reason: "missing employee account id"}
	}
	if entry.Type == "" {
		return nil, &domain.BatchItemError{Key: key, Reason: "missing entry type"}
	}
	if entry.Date == "" {
		return nil, &domain.BatchItemError{Key: key, Reason: "missing entry date"}
	}

	entryDate, err := parseEntryDate(entry.Date)
	if err != nil {
		return nil, &domain.BatchItemError{Key: key, Reason: fmt.Sprintf("unparseable date %q", entry.Date)}
	}

	hours, clamped := decimal.Zero, false
	if entry.TotalMillis != nil {
		hours, clamped = domain.HoursFromMilliseconds(*entry.TotalMillis)
	}
	if clamped {
		s.log.Warn("duration clamped to [0, 24] hours",
			"entry_id", entry.ID,
			"tenant_id", tenantID,
			"total_millis", *entry.TotalMillis,
			"hours", hours,
		)
	}

	candidate := domain.TimeEntry{
		TenantID:          tenantID,
		ExternalEntryID:   entry.ID,
		EmployeeAccountID: accountID,
		EntryType:         entry.Type,
		EntryDate:         entryDate,
		TotalHours:        hours,
		ApprovalStatus:    entry.ApprovalStatus,
		IsRaw:             entry.IsRaw,
		IsCalculated:      entry.IsCalculated,
		RawPayload:        append(json.RawMessage(nil), raw...),
	}

	if entry.StartDateTime != nil {
		if ts, err := parseTimestamp(*entry.StartDateTime); err == nil {
			candidate.StartTime = &ts
		}
	}
	if entry.EndDateTime != nil {
		if ts, err := parseTimestamp(*entry.EndDateTime); err == nil {
			candidate.EndTime = &ts
		}
	}

	for _, ref := range entry.CostCenters {
		id := ref.ID
		switch ref.Index {
		case hcm.CostCenterIndexLocation:
			candidate.LocationCostCenterID = &id
		case hcm.CostCenterIndexDepartment:
			candidate.DepartmentCostCenterID = &id
		}
	}

	return &candidate, nil
}

// parseEntryDate takes the leading YYYY-MM-DD component of a date or
// datetime string literally as a UTC calendar date. The timezone of a full
// datetime is deliberately ignored so repeated ingests of the same vendor
// business day always land on the same date.
func parseEntryDate(value string) (time.Time, error) {
	if len(value) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("date %q too short", value)
	}
	return time.ParseInLocation(dateLayout, value[:len(dateLayout)], time.UTC)
}

// parseTimestamp parses a vendor datetime, accepting RFC 3339 with or
// without sub-second precision.
func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
