package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/pkg/ctxutil"
)

// TenantHeader carries the caller's tenant id on every API request.
const TenantHeader = "X-Tenant-ID"

// Tenant extracts the tenant id header, validates it, and stores it in the
// request context. Requests without a valid tenant id never reach the
// handler.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(TenantHeader)
		if raw == "" {
			rejectTenant(w, "missing "+TenantHeader+" header")
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			rejectTenant(w, "invalid "+TenantHeader+" header")
			return
		}

		ctx := ctxutil.WithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rejectTenant(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
