package domain

// RoutingDecision is the final outcome of classification: which
// department owns the complaint, at what priority, and under what SLA.
type RoutingDecision struct {
	Department Department
	Priority   PriorityLevel
	SLAHours   int
}
