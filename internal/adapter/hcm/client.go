package hcm

import (
	"context"
	"time"
)

// Client fetches raw payloads from the vendor API. Implementations own
// authentication, retries, and pagination; the ingestion pipeline only
// consumes the decoded payloads. The production client lives outside this
// core (it is a collaborator), which also keeps replay from captured
// payload files trivial.
type Client interface {
	// FetchTimesheets returns the vendor timesheet export for a date range.
	FetchTimesheets(ctx context.Context, from, to time.Time) (*TimesheetPayload, error)

	// FetchEmployees returns the vendor employee directory.
	FetchEmployees(ctx context.Context) ([]EmployeeRecord, error)
}
