package events

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Actor kinds recorded on events.
const (
	ActorKindCitizen = "citizen"
	ActorKindAdmin   = "admin"
	ActorKindSystem  = "system"
)

// Actor encapsulates who triggered an event. Ref holds the channel
// reference for citizens, e.g. "telegram:12345".
type Actor struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload carries the routed complaint snapshot. Notify
// asks the notifier to push a confirmation; the bot leaves it false
// because it replies in-channel itself.
type ComplaintCreatedPayload struct {
	SubmitterRef   string               `json:"submitter_ref"`
	SubmitterName  string               `json:"submitter_name,omitempty"`
	DepartmentID   string               `json:"department_id"`
	DepartmentName string               `json:"department_name"`
	Priority       domain.PriorityLevel `json:"priority"`
	SLAHours       int                  `json:"sla_hours"`
	IssueType      string               `json:"issue_type"`
	Summary        string               `json:"summary,omitempty"`
	Degraded       bool                 `json:"degraded"`
	Notify         bool                 `json:"notify"`
}

// ComplaintStatusChangedPayload payload. Notify reflects the admin's
// notify_citizen choice on the update request.
type ComplaintStatusChangedPayload struct {
	SubmitterRef string                 `json:"submitter_ref"`
	OldStatus    domain.ComplaintStatus `json:"old_status"`
	NewStatus    domain.ComplaintStatus `json:"new_status"`
	Note         string                 `json:"note,omitempty"`
	Notify       bool                   `json:"notify"`
}
