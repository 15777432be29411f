package mapper

// Status is the per-threat coverage verdict.
type Status string

const (
	// StatusMitigated: at least one traced requirement passed the asset gate.
	StatusMitigated Status = "Mitigated"
	// StatusPartial: requirements trace to the required tokens but none
	// passed the asset gate.
	StatusPartial Status = "Partially satisfied"
	// StatusNotMitigated: tokens were required but nothing traced to them.
	StatusNotMitigated Status = "Not mitigated"
	// StatusNotApplicable: the matched rules required no tokens at all.
	StatusNotApplicable Status = "Not applicable"
)

// ResolveStatus is the strict status ladder, a total function of the three
// set sizes, evaluated in this order and no other.
func ResolveStatus(required, traceable, mapped int) Status {
	switch {
	case mapped > 0:
		return StatusMitigated
	case traceable > 0:
		return StatusPartial
	case required > 0:
		return StatusNotMitigated
	}
	return StatusNotApplicable
}
