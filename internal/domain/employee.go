package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Employee is an HCM-sourced employee record, keyed by
// (TenantID, ExternalEmployeeID). Employees are soft-deactivated via
// DeactivatedAt and never hard-deleted.
type Employee struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	ExternalEmployeeID string
	AccountID          string  // time-clock account identifier
	PayrollNumber      *string // secondary-system employee number
	FirstName          string
	LastName           string
	Email              *string

	DepartmentCostCenterID *int64
	DepartmentName         *string
	LocationCostCenterID   *int64
	LocationName           *string

	HireDate *time.Time
	PayType  *string

	RawPayload    json.RawMessage
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns "First Last" with empty parts dropped.
func (e *Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}

// IsActive reports whether the employee has not been deactivated.
func (e *Employee) IsActive() bool {
	return e.DeactivatedAt == nil
}

// UnifiedEmployee is a row from the secondary unified employee table,
// maintained by an independent sync process. Origin tags which upstream
// system contributed the row.
type UnifiedEmployee struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	AccountID     *string
	PayrollNumber *string
	FullName      string
	Department    *string
	Location      *string
	CostCenter    *string
	Origin        string // OriginHCM or OriginPayroll
	UpdatedAt     time.Time
}

// Origin tags for unified employee rows.
const (
	OriginHCM     = "hcm"
	OriginPayroll = "payroll"
)
