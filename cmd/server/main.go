// Command server runs the HTTP API: health probes plus the read-only
// clocked-in snapshot views.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/shiftmirror/shiftmirror-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
