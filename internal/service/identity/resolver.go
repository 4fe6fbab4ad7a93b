package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shiftmirror/shiftmirror-backend/internal/domain"
)

// Source ranks: the primary employee table always beats the unified table,
// and within the unified table an hcm-tagged row beats a payroll-tagged one.
const (
	rankPrimary        = 1
	rankUnifiedHCM     = 2
	rankUnifiedPayroll = 3
)

// candidate is one source row competing for an identifier.
type candidate struct {
	rank     int
	resolved domain.ResolvedIdentity
}

// ResolveIdentities maps each identifier (time-clock account id or payroll
// number) to the employee data of its highest-ranked contributing source.
// Identifiers found in both the primary and the unified table get
// provenance "both". Unmatched identifiers are absent from the result,
// never an error.
func (s *Service) ResolveIdentities(ctx context.Context, tenantID uuid.UUID, identifiers []string) (map[string]domain.ResolvedIdentity, error) {
	identifiers = dedupe(identifiers)
	if len(identifiers) == 0 {
		return map[string]domain.ResolvedIdentity{}, nil
	}

	primary, err := s.employees.ListByIdentifiers(ctx, tenantID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("resolve identities: primary source: %w", err)
	}

	unified, err := s.unified.ListByIdentifiers(ctx, tenantID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("resolve identities: unified source: %w", err)
	}

	best := make(map[string]candidate, len(identifiers))
	inPrimary := make(map[string]bool, len(identifiers))
	inUnified := make(map[string]bool, len(identifiers))

	wanted := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		wanted[id] = true
	}

	// Primary rows match on account id first, then payroll number. When one
	// row matches an identifier both ways the account-id match wins; the
	// resolved fields are identical either way.
	for _, emp := range primary {
		emp := emp
		for _, id := range matchingIdentifiers(wanted, emp.AccountID, emp.PayrollNumber) {
			inPrimary[id] = true
			offer(best, id, candidate{
				rank: rankPrimary,
				resolved: domain.ResolvedIdentity{
					EmployeeID: emp.ExternalEmployeeID,
					Name:       emp.FullName(),
					Department: emp.DepartmentName,
					Location:   emp.LocationName,
					Provenance: domain.ProvenanceHCM,
				},
			})
		}
	}

	for _, row := range unified {
		row := row
		rank := rankUnifiedPayroll
		provenance := domain.ProvenancePayroll
		if row.Origin == domain.OriginHCM {
			rank = rankUnifiedHCM
			provenance = domain.ProvenanceHCM
		}

		var accountID string
		if row.AccountID != nil {
			accountID = *row.AccountID
		}
		for _, id := range matchingIdentifiers(wanted, accountID, row.PayrollNumber) {
			inUnified[id] = true
			offer(best, id, candidate{
				rank: rank,
				resolved: domain.ResolvedIdentity{
					EmployeeID: row.ID.String(),
					Name:       row.FullName,
					Department: row.Department,
					Location:   row.Location,
					CostCenter: row.CostCenter,
					Provenance: provenance,
				},
			})
		}
	}

	result := make(map[string]domain.ResolvedIdentity, len(best))
	for id, c := range best {
		resolved := c.resolved
		if inPrimary[id] && inUnified[id] {
			resolved.Provenance = domain.ProvenanceBoth
		}
		result[id] = resolved
	}

	return result, nil
}

// matchingIdentifiers returns which of the wanted identifiers this row's
// account id or payroll number hits.
func matchingIdentifiers(wanted map[string]bool, accountID string, payrollNumber *string) []string {
	var ids []string
	if accountID != "" && wanted[accountID] {
		ids = append(ids, accountID)
	}
	if payrollNumber != nil && *payrollNumber != accountID && wanted[*payrollNumber] {
		ids = append(ids, *payrollNumber)
	}
	return ids
}

// offer keeps the lower-ranked (higher-priority) candidate for an identifier.
func offer(best map[string]candidate, id string, c candidate) {
	current, ok := best[id]
	if !ok || c.rank < current.rank {
		best[id] = c
	}
}

func dedupe(identifiers []string) []string {
	seen := make(map[string]bool, len(identifiers))
	out := identifiers[:0:0]
	for _, id := range identifiers {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
