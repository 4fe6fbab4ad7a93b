package rest

import (
	"log/slog"
	"net/http"

	"github.com/shiftmirror/shiftmirror-backend/internal/transport/middleware"
)

// NewRouter assembles the HTTP routing table. Health probes are unguarded;
// everything under /api/v1 requires a valid X-Tenant-ID header.
func NewRouter(health *HealthHandler, snapshots *SnapshotHandler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	api := middleware.Chain(middleware.Tenant)
	mux.Handle("GET /api/v1/snapshot", api(http.HandlerFunc(snapshots.List)))
	mux.Handle("GET /api/v1/snapshot/stats", api(http.HandlerFunc(snapshots.Stats)))

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
	)(mux)
}
