package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/worker"
	"github.com/spec-kit/grievance-service/pkg/util"
)

const (
	telegramRefPrefix = "telegram:"
	sendTimeout       = 10 * time.Second
)

// Sender delivers one message to a Telegram chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ComplaintReader is the read-side surface the notifier needs.
type ComplaintReader interface {
	Get(ctx context.Context, id string) (*domain.Complaint, error)
}

// Service turns domain events into citizen notifications. Handlers only
// format and enqueue; delivery happens on the worker pool so publishing
// never blocks on the network.
type Service struct {
	complaints ComplaintReader
	registry   *registry.Registry
	sender     Sender
	pool       *worker.Pool
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewService creates the notifier.
func NewService(complaints ComplaintReader, reg *registry.Registry, sender Sender, pool *worker.Pool, logger *zap.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		complaints: complaints,
		registry:   reg,
		sender:     sender,
		pool:       pool,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to the dispatcher. A nil sender leaves the
// notifier inert, which is how the service runs without a bot token.
func (s *Service) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.sender == nil {
		return
	}
	dispatcher.Subscribe(events.EventComplaintCreated, s.handleComplaintCreated)
	dispatcher.Subscribe(events.EventComplaintStatusChanged, s.handleStatusChanged)
}

func (s *Service) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok || !payload.Notify {
		return nil
	}
	chatID, ok := telegramChatID(payload.SubmitterRef)
	if !ok {
		s.recordOutcome("skipped")
		return nil
	}

	complaint, err := s.complaints.Get(ctx, event.ComplaintID)
	if err != nil {
		s.logger.Warn("notification lookup failed",
			zap.String("complaint_id", event.ComplaintID), zap.Error(err))
		s.recordOutcome("failed")
		return nil
	}

	s.enqueue(complaint.ID, chatID, FormatRegistration(complaint, s.departmentName(complaint.DepartmentID)))
	return nil
}

func (s *Service) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok || !payload.Notify {
		return nil
	}
	chatID, ok := telegramChatID(payload.SubmitterRef)
	if !ok {
		s.recordOutcome("skipped")
		return nil
	}

	complaint, err := s.complaints.Get(ctx, event.ComplaintID)
	if err != nil {
		s.logger.Warn("notification lookup failed",
			zap.String("complaint_id", event.ComplaintID), zap.Error(err))
		s.recordOutcome("failed")
		return nil
	}

	text := FormatStatusUpdate(complaint, s.departmentName(complaint.DepartmentID),
		payload.OldStatus, payload.NewStatus, payload.Note)
	s.enqueue(complaint.ID, chatID, text)
	return nil
}

// SendCustomMessage pushes a free-form admin message to the complaint's
// submitter. Backs the manual admin notify endpoint. An empty message
// falls back to the current status report.
func (s *Service) SendCustomMessage(ctx context.Context, complaintID, message string) error {
	if s.sender == nil {
		return util.NewValidationError("citizen channel not configured", nil)
	}
	complaint, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	chatID, ok := telegramChatID(complaint.SubmitterRef)
	if !ok {
		return util.NewValidationError("complaint has no deliverable citizen channel", map[string]any{
			"submitter_reference": complaint.SubmitterRef,
		})
	}

	text := FormatStatus(complaint, s.departmentName(complaint.DepartmentID))
	if strings.TrimSpace(message) != "" {
		text = FormatAdminMessage(complaint.ID, message)
	}
	s.enqueue(complaint.ID, chatID, text)
	return nil
}

func (s *Service) enqueue(complaintID string, chatID int64, text string) {
	queued := s.pool.Submit(func(ctx context.Context) {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := s.sender.SendMessage(sendCtx, chatID, text); err != nil {
			s.logger.Warn("notification send failed",
				zap.String("complaint_id", complaintID),
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			s.recordOutcome("failed")
			return
		}
		s.recordOutcome("sent")
	})
	if !queued {
		s.logger.Warn("notification queue full, dropping",
			zap.String("complaint_id", complaintID))
		s.recordOutcome("dropped")
	}
}

func (s *Service) departmentName(id string) string {
	if dept, ok := s.registry.LookupByID(id); ok {
		return dept.Name
	}
	return id
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(outcome)
	}
}

func telegramChatID(ref string) (int64, bool) {
	raw, found := strings.CutPrefix(ref, telegramRefPrefix)
	if !found {
		return 0, false
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return chatID, true
}
