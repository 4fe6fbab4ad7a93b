package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/hcm"
	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// IngestTimesheets normalizes a vendor timesheet payload and reconciles the
// resulting candidates. Validation rejections and per-item persistence
// failures land in the same error list; the returned BatchResult is the
// authoritative outcome.
func (s *Service) IngestTimesheets(ctx context.Context, tenantID uuid.UUID, payload *hcm.TimesheetPayload) (*domain.BatchResult, error) {
	normalized := s.NormalizeTimesheets(tenantID, payload)

	if len(normalized.Candidates) > s.cfg.MaxEntriesPerBatch {
		return nil, domain.NewValidationError("timeEntrySets",
			fmt.Sprintf("payload has %d entries, limit is %d", len(normalized.Candidates), s.cfg.MaxEntriesPerBatch))
	}

	result, err := s.ReconcileTimeEntries(ctx, tenantID, normalized.Candidates)
	if err != nil {
		return nil, err
	}

	result.Errors = append(normalized.Errors, result.Errors...)

	s.log.Info("timesheet payload ingested",
		"tenant_id", tenantID,
		"candidates", len(normalized.Candidates),
		"processed", result.Processed,
		"errors", len(result.Errors),
	)

	return result, nil
}

// ReconcileTimeEntries upserts candidates inside one transaction, each in
// its own savepoint. A candidate that fails to persist is recorded and
// skipped; the rest of the batch still commits. Only an error escaping the
// per-item handling (connectivity loss, commit failure) aborts the batch.
func (s *Service) ReconcileTimeEntries(ctx context.Context, tenantID uuid.UUID, candidates []domain.TimeEntry) (*domain.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	var result domain.BatchResult

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, candidate := range candidates {
			candidate.TenantID = tenantID

			itemErr := s.tx.RunInSavepoint(txCtx, func(spCtx context.Context) error {
				return s.entries.Upsert(spCtx, candidate)
			})
			if itemErr != nil {
				if ctxErr := txCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("time entry rejected",
					"tenant_id", tenantID,
					"entry_id", candidate.ExternalEntryID,
					"error", itemErr,
				)
				result.AddError(candidate.ExternalEntryID, itemErr.Error())
				continue
			}
			result.Processed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile time entries: %w", err)
	}

	return &result, nil
}

// ReconcileEmployees converts vendor directory records into employee rows
// and upserts them under the same partial-batch contract as time entries.
func (s *Service) ReconcileEmployees(ctx context.Context, tenantID uuid.UUID, records []hcm.EmployeeRecord) (*domain.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	var result domain.BatchResult

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i, record := range records {
			key := record.ID
			if key == "" {
				result.AddError(fmt.Sprintf("employee[%d]", i), "missing employee id")
				continue
			}
			if record.AccountID == "" {
				result.AddError(key, "missing account id")
				continue
			}

			emp := employeeFromRecord(tenantID, record)

			itemErr := s.tx.RunInSavepoint(txCtx, func(spCtx context.Context) error {
				return s.employees.Upsert(spCtx, emp)
			})
			if itemErr != nil {
				if ctxErr := txCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("employee rejected",
					"tenant_id", tenantID,
					"employee_id", key,
					"error", itemErr,
				)
				result.AddError(key, itemErr.Error())
				continue
			}
			result.Processed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile employees: %w", err)
	}

	return &result, nil
}

// ReconcileCostCenters upserts cost centers under the same partial-batch
// contract as the other reconciliation variants.
func (s *Service) ReconcileCostCenters(ctx context.Context, tenantID uuid.UUID, centers []domain.CostCenter) (*domain.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	var result domain.BatchResult

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, center := range centers {
			key := fmt.Sprintf("%d", center.ID)
			if center.ID <= 0 {
				result.AddError(key, "invalid cost center id")
				continue
			}
			if center.Name == "" {
				result.AddError(key, "missing cost center name")
				continue
			}

			center := center
			itemErr := s.tx.RunInSavepoint(txCtx, func(spCtx context.Context) error {
				return s.costCenters.Upsert(spCtx, tenantID, center)
			})
			if itemErr != nil {
				if ctxErr := txCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("cost center rejected",
					"tenant_id", tenantID,
					"cost_center_id", center.ID,
					"error", itemErr,
				)
				result.AddError(key, itemErr.Error())
				continue
			}
			result.Processed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile cost centers: %w", err)
	}

	return &result, nil
}

// DeactivateEmployee soft-deactivates one employee, typically when the
// vendor directory no longer lists them.
func (s *Service) DeactivateEmployee(ctx context.Context, tenantID uuid.UUID, externalID string) error {
	if externalID == "" {
		return domain.NewValidationError("externalId", "must not be empty")
	}
	return s.employees.Deactivate(ctx, tenantID, externalID)
}

// employeeFromRecord maps a vendor directory record onto the employee row
// shape, including the denormalized cost-center names the vendor supplies
// inline.
func employeeFromRecord(tenantID uuid.UUID, record hcm.EmployeeRecord) domain.Employee {
	emp := domain.Employee{
		TenantID:           tenantID,
		ExternalEmployeeID: record.ID,
		AccountID:          record.AccountID,
		PayrollNumber:      record.PayrollNumber,
		FirstName:          record.FirstName,
		LastName:           record.LastName,
		Email:              record.Email,
		PayType:            record.PayType,
		RawPayload:         mustMarshal(record),
	}

	if record.HireDate != nil {
		if hired, err := parseEntryDate(*record.HireDate); err == nil {
			emp.HireDate = &hired
		}
	}
	if record.Location != nil {
		id, name := record.Location.ID, record.Location.Name
		emp.LocationCostCenterID = &id
		emp.LocationName = &name
	}
	if record.Department != nil {
		id, name := record.Department.ID, record.Department.Name
		emp.DepartmentCostCenterID = &id
		emp.DepartmentName = &name
	}

	return emp
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{}`)
	}
	return data
}
