package domain

// LocationUnknown is substituted whenever no location can be determined.
const LocationUnknown = "Not specified"

// ExtractionResult is the transient value produced by the extraction
// oracle for one complaint text. It is best-effort input to routing,
// never authoritative: the routing engine may override the priority and
// resolve a different department.
type ExtractionResult struct {
	IssueType             string
	Location              string
	ResponsibleDepartment string
	Priority              PriorityLevel
	Confidence            float64
	Summary               string
}

// Degraded reports whether this result came from the keyword fallback
// rather than a successful oracle call.
func (r ExtractionResult) Degraded() bool {
	return r.Confidence == 0
}
