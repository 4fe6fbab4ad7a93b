package domain

// Provenance tags on a resolved identity: which upstream source(s)
// contributed the winning record.
const (
	ProvenanceHCM     = OriginHCM
	ProvenancePayroll = OriginPayroll
	ProvenanceBoth    = "both"
)

// ResolvedIdentity is the resolver's answer for one input identifier.
// Field values always come from the highest-ranked contributing row;
// Provenance reports which sources held the identifier at all.
type ResolvedIdentity struct {
	EmployeeID string // external id of the winning record
	Name       string
	Department *string
	Location   *string
	CostCenter *string
	Provenance string
}
