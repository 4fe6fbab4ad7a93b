// Command sync runs the ingestion pipeline once against captured vendor
// payload files. It is intended to be invoked by an external scheduler or
// by an operator replaying an export, not as an in-process goroutine.
//
// Flags:
//
//	--tenant       tenant UUID the payloads belong to (required)
//	--timesheets   path to a vendor timesheet export (JSON)
//	--employees    path to a vendor employee directory export (JSON)
//	--costcenters  path to a cost-center list (JSON), bulk-upserted as-is
//
// Exit codes: 0 = success, 1 = error or any rejected item.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/hcm"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/costcenter"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/employee"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/timeentry"
	"github.com/shiftmirror/shiftmirror-backend/internal/app"
	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/ingest"
)

func main() {
	tenantFlag := flag.String("tenant", "", "tenant UUID the payloads belong to")
	timesheetsFlag := flag.String("timesheets", "", "path to a vendor timesheet export (JSON)")
	employeesFlag := flag.String("employees", "", "path to a vendor employee directory export (JSON)")
	costCentersFlag := flag.String("costcenters", "", "path to a cost-center list (JSON)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	tenantID, err := uuid.Parse(*tenantFlag)
	if err != nil || tenantID == uuid.Nil {
		logger.Error("a valid --tenant UUID is required")
		os.Exit(1)
	}
	if *timesheetsFlag == "" && *employeesFlag == "" && *costCentersFlag == "" {
		logger.Error("nothing to do: pass --timesheets, --employees, or --costcenters")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	costCenters := costcenter.New(pool)
	svc := ingest.NewService(
		logger,
		timeentry.New(pool),
		employee.New(pool),
		costCenters,
		postgres.NewTxManager(pool),
		cfg.Ingest,
	)

	failed := false

	// Cost centers go first so employee and time-entry rows can resolve
	// against them immediately. They run through the same partial-batch
	// reconciliation as the other kinds: one bad record is reported and
	// skipped, not a reason to abort the file.
	if *costCentersFlag != "" {
		centers, err := readCostCenters(*costCentersFlag)
		if err != nil {
			logger.Error("read cost centers", slog.String("error", err.Error()))
			os.Exit(1)
		}

		result, err := svc.ReconcileCostCenters(ctx, tenantID, centers)
		if err != nil {
			logger.Error("reconcile cost centers", slog.String("error", err.Error()))
			os.Exit(1)
		}
		failed = logResult(logger, "costcenters", result) || failed
	}

	if *employeesFlag != "" {
		data, err := os.ReadFile(*employeesFlag)
		if err != nil {
			logger.Error("read employees", slog.String("error", err.Error()))
			os.Exit(1)
		}
		records, err := hcm.ParseEmployeeRecords(data)
		if err != nil {
			logger.Error("parse employees", slog.String("error", err.Error()))
			os.Exit(1)
		}

		result, err := svc.ReconcileEmployees(ctx, tenantID, records)
		if err != nil {
			logger.Error("reconcile employees", slog.String("error", err.Error()))
			os.Exit(1)
		}
		failed = logResult(logger, "employees", result) || failed
	}

	if *timesheetsFlag != "" {
		data, err := os.ReadFile(*timesheetsFlag)
		if err != nil {
			logger.Error("read timesheets", slog.String("error", err.Error()))
			os.Exit(1)
		}
		payload, err := hcm.ParseTimesheetPayload(data)
		if err != nil {
			logger.Error("parse timesheets", slog.String("error", err.Error()))
			os.Exit(1)
		}

		result, err := svc.IngestTimesheets(ctx, tenantID, payload)
		if err != nil {
			logger.Error("ingest timesheets", slog.String("error", err.Error()))
			os.Exit(1)
		}
		failed = logResult(logger, "timesheets", result) || failed
	}

	if failed {
		logger.Warn("sync completed with rejected items")
		os.Exit(1)
	}

	logger.Info("sync completed successfully")
}

// costCenterRecord is the file shape for one cost center.
type costCenterRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	ParentID *int64 `json:"parentId"`
	Level    int    `json:"level"`
	IsActive *bool  `json:"isActive"`
}

func readCostCenters(path string) ([]domain.CostCenter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []costCenterRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	centers := make([]domain.CostCenter, 0, len(records))
	for _, rec := range records {
		active := true
		if rec.IsActive != nil {
			active = *rec.IsActive
		}
		centers = append(centers, domain.CostCenter{
			ID:       rec.ID,
			Name:     rec.Name,
			Code:     rec.Code,
			ParentID: rec.ParentID,
			Level:    rec.Level,
			IsActive: active,
		})
	}
	return centers, nil
}

// logResult reports a batch outcome and returns true when any item failed.
func logResult(logger *slog.Logger, kind string, result *domain.BatchResult) bool {
	for _, itemErr := range result.Errors {
		logger.Warn("item rejected",
			slog.String("kind", kind),
			slog.String("key", itemErr.Key),
			slog.String("reason", itemErr.Reason),
		)
	}
	logger.Info("batch finished",
		slog.String("kind", kind),
		slog.Int("processed", result.Processed),
		slog.Int("rejected", len(result.Errors)),
	)
	return result.HasErrors()
}
