package domain

import "time"

// CostCenter is an organizational/accounting unit (location, department).
// Cost centers form a tree via ParentID; Level is the depth within it.
// They are upserted independently of employees and time entries and are
// read only for name resolution.
type CostCenter struct {
	ID        int64
	Name      string
	Code      string
	ParentID  *int64
	Level     int
	IsActive  bool
	UpdatedAt time.Time
}
