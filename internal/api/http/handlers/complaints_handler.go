package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/pkg/util"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ComplaintsHandler manages the public complaint endpoints.
type ComplaintsHandler struct {
	service  *service.ComplaintService
	registry *registry.Registry
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService, reg *registry.Registry) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService, registry: reg}
}

// Submit POST /api/complaints.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return util.NewValidationError("text required", nil)
	}

	// Anonymous web submissions still need a stable reference for
	// history lookups, so one is minted per complaint.
	submitterRef := strings.TrimSpace(req.SubmitterReference)
	if submitterRef == "" {
		submitterRef = "web:" + uuid.NewString()
	}

	complaint, err := h.service.Submit(c.UserContext(), service.SubmitInput{
		SubmitterRef:  submitterRef,
		SubmitterName: strings.TrimSpace(req.SubmitterName),
		Text:          req.Text,
		NotifyCitizen: true,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.SubmitComplaintResponse{
		ID:             complaint.ID,
		Status:         complaint.Status,
		Department:     complaint.DepartmentID,
		DepartmentName: departmentName(h.registry, complaint.DepartmentID),
		Priority:       complaint.Priority,
		SLAHours:       complaint.SLAHours,
		CreatedAt:      complaint.CreatedAt,
	})
}

// List GET /api/complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	filter := service.ListFilter{}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return util.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	if raw := c.Query("department"); raw != "" {
		department := strings.ToLower(strings.TrimSpace(raw))
		filter.Department = &department
	}
	if raw := c.Query("priority"); raw != "" {
		priority, ok := domain.ParsePriority(raw)
		if !ok {
			return util.NewValidationError("invalid priority filter", map[string]any{"priority": raw})
		}
		filter.Priority = &priority
	}

	page := parsePositiveInt(c.Query("page"), 1)
	perPage := parsePositiveInt(c.Query("per_page"), defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	complaints, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintResponse(h.registry, &complaints[i]))
	}
	return c.JSON(dto.ComplaintListResponse{
		Complaints: items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
	})
}

// Get GET /api/complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	complaint, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(complaintResponse(h.registry, complaint))
}

// History GET /api/complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	complaint, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), complaint.ID)
	if err != nil {
		return err
	}

	history := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, dto.HistoryEntryResponse{
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Note:      entry.Note,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		})
	}
	return c.JSON(dto.HistoryResponse{
		ComplaintID:   complaint.ID,
		CurrentStatus: complaint.Status,
		History:       history,
	})
}

func parsePositiveInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func departmentName(reg *registry.Registry, id string) string {
	if dept, ok := reg.LookupByID(id); ok {
		return dept.Name
	}
	return id
}

func complaintResponse(reg *registry.Registry, complaint *domain.Complaint) dto.ComplaintResponse {
	return dto.ComplaintResponse{
		ID:                 complaint.ID,
		SubmitterReference: complaint.SubmitterRef,
		SubmitterName:      complaint.SubmitterName,
		RawText:            complaint.RawText,
		IssueType:          complaint.IssueType,
		Location:           complaint.Location,
		Department:         complaint.DepartmentID,
		DepartmentName:     departmentName(reg, complaint.DepartmentID),
		Priority:           complaint.Priority,
		Status:             complaint.Status,
		Confidence:         complaint.Confidence,
		Summary:            complaint.Summary,
		SLAHours:           complaint.SLAHours,
		CreatedAt:          complaint.CreatedAt,
		UpdatedAt:          complaint.UpdatedAt,
	}
}
