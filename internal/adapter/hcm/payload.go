// Package hcm models the vendor's Human-Capital-Management API payloads as
// explicit tagged structs. The vendor groups time entries into per-employee
// sets; each raw entry is also captured verbatim (json.RawMessage) so the
// normalized record can retain its original payload for audit.
package hcm

import (
	"encoding/json"
	"fmt"
)

// TimesheetPayload is the top-level shape of the vendor's timesheet export:
// an array of employee sets, each carrying zero or more raw entries.
type TimesheetPayload struct {
	EntrySets []EntrySet `json:"timeEntrySets"`
}

// EntrySet groups the entries belonging to one employee.
type EntrySet struct {
	Employee SetEmployee       `json:"employee"`
	Entries  []json.RawMessage `json:"timeEntries"`
}

// SetEmployee carries the employee identifier the set's entries inherit.
type SetEmployee struct {
	AccountID string `json:"accountId"`
}

// RawEntry is one vendor time entry. All fields are optional at the JSON
// level; the normalizer decides which absences are validation errors.
type RawEntry struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Date           string          `json:"date"`
	StartDateTime  *string         `json:"startDateTime"`
	EndDateTime    *string         `json:"endDateTime"`
	TotalMillis    *int64          `json:"total"` // elapsed milliseconds
	ApprovalStatus string          `json:"approvalStatus"`
	IsRaw          bool            `json:"isRaw"`
	IsCalculated   bool            `json:"isCalculated"`
	CostCenters    []CostCenterRef `json:"costCenters"`
}

// CostCenterRef is one element of the vendor's positional cost-center
// array. By vendor convention index 0 is the location cost center and
// index 1 is the department/job cost center; other indexes are ignored.
type CostCenterRef struct {
	Index int   `json:"index"`
	ID    int64 `json:"costCenterId"`
}

// Positional cost-center slots the vendor defines.
const (
	CostCenterIndexLocation   = 0
	CostCenterIndexDepartment = 1
)

// ParseTimesheetPayload decodes a raw vendor response body.
func ParseTimesheetPayload(data []byte) (*TimesheetPayload, error) {
	var p TimesheetPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("hcm: parse timesheet payload: %w", err)
	}
	return &p, nil
}

// EmployeeRecord is the vendor's shape for one employee in a directory
// sync response.
type EmployeeRecord struct {
	ID            string  `json:"id"`
	AccountID     string  `json:"accountId"`
	PayrollNumber *string `json:"employeeNumber"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         *string `json:"email"`
	HireDate      *string `json:"hireDate"`
	PayType       *string `json:"payType"`

	Location   *EmployeeCostCenter `json:"location"`
	Department *EmployeeCostCenter `json:"department"`
}

// EmployeeCostCenter is an id+name cost-center reference on an employee.
type EmployeeCostCenter struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ParseEmployeeRecords decodes a raw vendor directory response body.
func ParseEmployeeRecords(data []byte) ([]EmployeeRecord, error) {
	var records []EmployeeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("hcm: parse employee records: %w", err)
	}
	return records, nil
}
