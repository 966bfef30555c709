package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/notify"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/pkg/util"
)

// AdminHandler manages the authenticated admin endpoints.
type AdminHandler struct {
	service  *service.ComplaintService
	notifier *notify.Service
	registry *registry.Registry
	tokens   *auth.TokenManager
	admin    config.AdminConfig
	metrics  *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	complaintService *service.ComplaintService,
	notifier *notify.Service,
	reg *registry.Registry,
	tokens *auth.TokenManager,
	admin config.AdminConfig,
	metrics *observability.Metrics,
) *AdminHandler {
	return &AdminHandler{
		service:  complaintService,
		notifier: notifier,
		registry: reg,
		tokens:   tokens,
		admin:    admin,
		metrics:  metrics,
	}
}

// CreateSession POST /api/admin/session. Exchanges the shared secret for
// a bearer token so the dashboard does not have to hold the secret in
// every request.
func (h *AdminHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if !auth.VerifySecret(req.Secret, h.admin.Secret, h.admin.SecretBcryptHash) {
		return util.NewUnauthorized("invalid admin credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken("admin", auth.RoleAdmin)
	if err != nil {
		return util.NewInternalError(err)
	}
	return c.Status(http.StatusCreated).JSON(dto.SessionResponse{Token: token, ExpiresAt: expiresAt})
}

// Stats GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}

	// Department counters are aggregated by id; the dashboard wants
	// display names.
	byDepartment := make(map[string]int, len(stats.ByDepartment))
	for id, count := range stats.ByDepartment {
		byDepartment[departmentName(h.registry, id)] = count
	}

	return c.JSON(dto.StatsResponse{
		TotalComplaints:    stats.Total,
		ByStatus:           stats.ByStatus,
		ByDepartment:       byDepartment,
		ByPriority:         stats.ByPriority,
		ResolvedCount:      stats.ResolvedCount,
		AvgResolutionHours: stats.MeanResolutionHours,
	})
}

// Departments GET /api/admin/departments.
func (h *AdminHandler) Departments(c *fiber.Ctx) error {
	departments := h.service.Departments()
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, dept := range departments {
		items = append(items, dto.DepartmentResponse{
			ID:       dept.ID,
			Name:     dept.Name,
			Keywords: dept.Keywords,
			SLAHours: dept.SLAHours,
			Contact:  dept.Contact,
		})
	}
	return c.JSON(dto.DepartmentListResponse{Departments: items})
}

// UpdateStatus PATCH /api/admin/complaints/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	newStatus, ok := domain.ParseStatus(req.NewStatus)
	if !ok {
		return util.NewValidationError("invalid status", map[string]any{"new_status": req.NewStatus})
	}

	changedBy := domain.ActorAdmin
	if principal, ok := auth.PrincipalFromContext(c); ok {
		changedBy = principal.Subject
	}

	complaint, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), service.StatusChangeInput{
		NewStatus:     newStatus,
		ChangedBy:     changedBy,
		Note:          strings.TrimSpace(req.Note),
		NotifyCitizen: req.NotifyCitizen,
	})
	if err != nil {
		return err
	}
	return c.JSON(complaintResponse(h.registry, complaint))
}

// Notify POST /api/admin/notify/:id. Queues a message to the citizen
// channel; delivery happens on the worker pool.
func (h *AdminHandler) Notify(c *fiber.Ctx) error {
	var req dto.NotifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return util.NewValidationError("invalid payload", nil)
		}
	}

	if err := h.notifier.SendCustomMessage(c.UserContext(), c.Params("id"), req.Message); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"status":       "queued",
		"complaint_id": strings.ToUpper(strings.TrimSpace(c.Params("id"))),
	})
}

// Metrics GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
