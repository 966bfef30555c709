package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending      ComplaintStatus = "pending"
	ComplaintStatusAcknowledged ComplaintStatus = "acknowledged"
	ComplaintStatusInProgress   ComplaintStatus = "in_progress"
	ComplaintStatusResolved     ComplaintStatus = "resolved"
	ComplaintStatusClosed       ComplaintStatus = "closed"
)

// ParseStatus validates a status string from the wire.
func ParseStatus(raw string) (ComplaintStatus, bool) {
	status := ComplaintStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case ComplaintStatusPending, ComplaintStatusAcknowledged, ComplaintStatusInProgress,
		ComplaintStatusResolved, ComplaintStatusClosed:
		return status, true
	}
	return "", false
}

// PriorityLevel enumerates grievance urgency.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
	PriorityUrgent PriorityLevel = "urgent"
)

// ParsePriority validates a priority string from the wire.
func ParsePriority(raw string) (PriorityLevel, bool) {
	priority := PriorityLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return priority, true
	}
	return "", false
}

// Rank places priorities on the total order urgent > high > medium > low.
func (p PriorityLevel) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Complaint is the persistent grievance aggregate. Seq is the allocation
// key; ID is its citizen-facing rendering and the only identifier other
// layers hold.
type Complaint struct {
	Seq           int64
	ID            string
	SubmitterRef  string
	SubmitterName string
	RawText       string
	IssueType     string
	Location      string
	DepartmentID  string
	Priority      PriorityLevel
	Status        ComplaintStatus
	Confidence    float64
	Summary       string
	SLAHours      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormatComplaintID renders the citizen-facing reference for a sequence
// number, e.g. 42 -> "SF-0042". Numbers past four digits widen naturally.
func FormatComplaintID(seq int64) string {
	return fmt.Sprintf("SF-%04d", seq)
}

// ParseComplaintID extracts the sequence number from a reference. Lookups
// accept any zero padding, so SF-1 and SF-0001 name the same complaint.
func ParseComplaintID(id string) (int64, error) {
	trimmed := strings.TrimSpace(id)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SF-") {
		return 0, fmt.Errorf("malformed complaint id %q", id)
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(upper, "SF-"), 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("malformed complaint id %q", id)
	}
	return seq, nil
}
