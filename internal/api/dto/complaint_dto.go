package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// SubmitComplaintRequest payload.
type SubmitComplaintRequest struct {
	SubmitterReference string `json:"submitter_reference"`
	SubmitterName      string `json:"submitter_name"`
	Text               string `json:"text"`
}

// SubmitComplaintResponse acknowledges a registered complaint.
type SubmitComplaintResponse struct {
	ID             string                 `json:"id"`
	Status         domain.ComplaintStatus `json:"status"`
	Department     string                 `json:"department"`
	DepartmentName string                 `json:"department_name"`
	Priority       domain.PriorityLevel   `json:"priority"`
	SLAHours       int                    `json:"sla_hours"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ComplaintResponse provides the full complaint record.
type ComplaintResponse struct {
	ID                 string                 `json:"id"`
	SubmitterReference string                 `json:"submitter_reference"`
	SubmitterName      string                 `json:"submitter_name,omitempty"`
	RawText            string                 `json:"raw_text"`
	IssueType          string                 `json:"issue_type"`
	Location           string                 `json:"location"`
	Department         string                 `json:"department"`
	DepartmentName     string                 `json:"department_name"`
	Priority           domain.PriorityLevel   `json:"priority"`
	Status             domain.ComplaintStatus `json:"status"`
	Confidence         float64                `json:"confidence"`
	Summary            string                 `json:"summary"`
	SLAHours           int                    `json:"sla_hours"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// ComplaintListResponse is a paginated listing.
type ComplaintListResponse struct {
	Complaints []ComplaintResponse `json:"complaints"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
}

// HistoryResponse wraps the ordered transition log of one complaint.
type HistoryResponse struct {
	ComplaintID   string                 `json:"complaint_id"`
	CurrentStatus domain.ComplaintStatus `json:"current_status"`
	History       []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse represents one recorded transition.
type HistoryEntryResponse struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
	ChangedBy string                 `json:"changed_by"`
	ChangedAt time.Time              `json:"changed_at"`
}

// UpdateStatusRequest payload for the admin transition endpoint.
type UpdateStatusRequest struct {
	NewStatus     string `json:"new_status"`
	Note          string `json:"note"`
	NotifyCitizen bool   `json:"notify_citizen"`
}

// NotifyRequest payload for the manual notification endpoint.
type NotifyRequest struct {
	Message string `json:"message"`
}

// DepartmentResponse is one registry entry.
type DepartmentResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	SLAHours int      `json:"sla_hours"`
	Contact  string   `json:"contact"`
}

// DepartmentListResponse is the registry dump.
type DepartmentListResponse struct {
	Departments []DepartmentResponse `json:"departments"`
}

// StatsResponse aggregates dashboard counters.
type StatsResponse struct {
	TotalComplaints    int            `json:"total_complaints"`
	ByStatus           map[string]int `json:"by_status"`
	ByDepartment       map[string]int `json:"by_department"`
	ByPriority         map[string]int `json:"by_priority"`
	ResolvedCount      int            `json:"resolved_count"`
	AvgResolutionHours *float64       `json:"avg_resolution_hours"`
}

// SessionRequest payload for minting an admin token.
type SessionRequest struct {
	Secret string `json:"secret"`
}

// SessionResponse carries the minted token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
