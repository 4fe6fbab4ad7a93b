package timeentry

import "time"

// Filter defines optional parameters for listing time entries.
// Nil fields are skipped; the query is built with squirrel, never by
// string concatenation.
type Filter struct {
	// EmployeeAccountID restricts to a single employee.
	EmployeeAccountID *string

	// From/To bound entry_date (inclusive). Either side may be open.
	From *time.Time
	To   *time.Time

	// ApprovalStatus filters on the vendor approval state.
	ApprovalStatus *string

	// EntryType filters on the vendor entry type.
	EntryType *string

	// SortOrder: "ASC" or "DESC" on entry_date. Default: "DESC".
	SortOrder string

	// Limit is the maximum number of rows to return. Default: 100, max: 1000.
	Limit int

	// Offset is the number of rows to skip.
	Offset int
}

const (
	defaultLimit = 100
	maxLimit     = 1000

	sortOrderASC  = "ASC"
	sortOrderDESC = "DESC"
)

// normalize applies defaults and clamps values.
func (f *Filter) normalize() {
	switch f.SortOrder {
	case sortOrderASC, sortOrderDESC:
		// valid
	default:
		f.SortOrder = sortOrderDESC
	}

	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}

	if f.Offset < 0 {
		f.Offset = 0
	}
}
