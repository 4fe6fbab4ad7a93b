package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
	"github.com/shiftmirror/shiftmirror-backend/pkg/ctxutil"
)

type snapshotService interface {
	List(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) ([]domain.ClockedInSnapshot, error)
	Stats(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (*domain.SnapshotStats, error)
}

// SnapshotHandler serves the read-only clocked-in snapshot endpoints.
type SnapshotHandler struct {
	snapshots snapshotService
	log       *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(snapshots snapshotService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		log:       logger.With("handler", "snapshot"),
	}
}

// snapshotRow is the JSON shape of one clocked-in employee.
type snapshotRow struct {
	EmployeeAccountID string          `json:"employeeAccountId"`
	EmployeeName      string          `json:"employeeName"`
	ClockInTime       time.Time       `json:"clockInTime"`
	LocationName      string          `json:"locationName"`
	DepartmentName    string          `json:"departmentName"`
	HoursWorkedSoFar  decimal.Decimal `json:"hoursWorkedSoFar"`
}

// snapshotResponse is the JSON response for GET /api/v1/snapshot.
type snapshotResponse struct {
	BusinessDate     string        `json:"businessDate"`
	CacheRefreshTime *time.Time    `json:"cacheRefreshTime,omitempty"`
	ClockedIn        []snapshotRow `json:"clockedIn"`
}

// statsResponse is the JSON response for GET /api/v1/snapshot/stats.
// refreshDurationMillis and successRate are not yet measured and always
// read zero.
type statsResponse struct {
	LastRefreshTime      *time.Time `json:"lastRefreshTime"`
	TotalClockedIn       int        `json:"totalClockedIn"`
	TotalActiveLocations int        `json:"totalActiveLocations"`
	TotalEmployees       int        `json:"totalEmployees"`
	Stale                bool       `json:"stale"`

	RefreshDurationMillis int64   `json:"refreshDurationMillis"`
	SuccessRate           float64 `json:"successRate"`
}

// List returns the current clocked-in snapshot.
// GET /api/v1/snapshot?date=YYYY-MM-DD (default: today, UTC)
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := ctxutil.TenantIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing tenant")
		return
	}

	businessDate, ok := h.businessDate(w, r)
	if !ok {
		return
	}

	rows, err := h.snapshots.List(r.Context(), tenantID, businessDate)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list snapshot", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := snapshotResponse{
		BusinessDate: businessDate.Format("2006-01-02"),
		ClockedIn:    make([]snapshotRow, 0, len(rows)),
	}
	for _, row := range rows {
		if resp.CacheRefreshTime == nil {
			t := row.CacheRefreshTime
			resp.CacheRefreshTime = &t
		}
		resp.ClockedIn = append(resp.ClockedIn, snapshotRow{
			EmployeeAccountID: row.EmployeeAccountID,
			EmployeeName:      row.EmployeeName,
			ClockInTime:       row.ClockInTime,
			LocationName:      row.LocationName,
			DepartmentName:    row.DepartmentName,
			HoursWorkedSoFar:  row.HoursWorkedSoFar,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats returns the snapshot cache health view.
// GET /api/v1/snapshot/stats?date=YYYY-MM-DD (default: today, UTC)
func (h *SnapshotHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := ctxutil.TenantIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing tenant")
		return
	}

	businessDate, ok := h.businessDate(w, r)
	if !ok {
		return
	}

	stats, err := h.snapshots.Stats(r.Context(), tenantID, businessDate)
	if err != nil {
		h.log.ErrorContext(r.Context(), "snapshot stats", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		LastRefreshTime:      stats.LastRefreshTime,
		TotalClockedIn:       stats.TotalClockedIn,
		TotalActiveLocations: stats.TotalActiveLocations,
		TotalEmployees:       stats.TotalEmployees,
		Stale:                stats.Stale,
	})
}

// businessDate parses the optional ?date= query parameter, defaulting to
// today in UTC. Reports false after writing an error response.
func (h *SnapshotHandler) businessDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return domain.BusinessDate(time.Now()), true
	}

	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return parsed, true
}
