package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/routing"
	"github.com/spec-kit/grievance-service/pkg/util"
)

// MinComplaintRunes is the floor for complaint text accepted anywhere.
// The Telegram bot applies its own higher floor before calling Submit.
const MinComplaintRunes = 10

// Extractor produces structured fields from free-form complaint text.
// Implementations never fail; unavailability yields a degraded result.
type Extractor interface {
	Extract(ctx context.Context, text string) domain.ExtractionResult
}

// ComplaintService coordinates the intake pipeline and the complaint
// lifecycle.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	extractor  Extractor
	router     *routing.Engine
	registry   *registry.Registry
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// Dependencies bundles collaborators for the complaint service.
type Dependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Extractor     Extractor
	Router        *routing.Engine
	Registry      *registry.Registry
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// SubmitInput describes one incoming grievance. NotifyCitizen requests
// a pushed confirmation; the bot leaves it false since it replies
// in-channel.
type SubmitInput struct {
	SubmitterRef  string
	SubmitterName string
	Text          string
	NotifyCitizen bool
}

// StatusChangeInput describes one requested transition.
type StatusChangeInput struct {
	NewStatus     domain.ComplaintStatus
	ChangedBy     string
	Note          string
	NotifyCitizen bool
}

// ListFilter describes admin listing filters. Filters combine
// conjunctively.
type ListFilter struct {
	Status     *domain.ComplaintStatus
	Department *string
	Priority   *domain.PriorityLevel
	Limit      int
	Offset     int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps Dependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		extractor:  deps.Extractor,
		router:     deps.Router,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Submit runs the two-stage pipeline and registers the complaint:
// extraction first, then keyword routing over the raw text, which may
// raise the priority and picks the owning department. Extraction
// failures degrade instead of failing, so intake never depends on the
// classification oracle being up.
func (s *ComplaintService) Submit(ctx context.Context, input SubmitInput) (*domain.Complaint, error) {
	text := strings.TrimSpace(input.Text)
	if utf8.RuneCountInString(text) < MinComplaintRunes {
		return nil, util.NewValidationError("complaint text too short", map[string]any{
			"min_length": MinComplaintRunes,
		})
	}
	ref := strings.TrimSpace(input.SubmitterRef)
	if ref == "" {
		return nil, util.NewValidationError("submitter reference required", nil)
	}

	extraction := s.extractor.Extract(ctx, text)
	decision := s.router.Route(text, extraction)

	complaint := &domain.Complaint{
		SubmitterRef:  ref,
		SubmitterName: strings.TrimSpace(input.SubmitterName),
		RawText:       text,
		IssueType:     extraction.IssueType,
		Location:      extraction.Location,
		DepartmentID:  decision.Department.ID,
		Priority:      decision.Priority,
		Confidence:    extraction.Confidence,
		Summary:       extraction.Summary,
		SLAHours:      decision.SLAHours,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.logger.Info("complaint registered",
		zap.String("complaint_id", complaint.ID),
		zap.String("department", complaint.DepartmentID),
		zap.String("priority", string(complaint.Priority)),
		zap.Float64("confidence", complaint.Confidence),
		zap.Bool("degraded", extraction.Degraded()))

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       citizenActor(ref),
		Payload: events.ComplaintCreatedPayload{
			SubmitterRef:   complaint.SubmitterRef,
			SubmitterName:  complaint.SubmitterName,
			DepartmentID:   decision.Department.ID,
			DepartmentName: decision.Department.Name,
			Priority:       complaint.Priority,
			SLAHours:       complaint.SLAHours,
			IssueType:      complaint.IssueType,
			Summary:        complaint.Summary,
			Degraded:       extraction.Degraded(),
			Notify:         input.NotifyCitizen,
		},
	})
	return complaint, nil
}

// Get fetches a complaint by its public reference.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return complaint, nil
}

// List returns a page of complaints plus the total matching the filter.
func (s *ComplaintService) List(ctx context.Context, filter ListFilter) ([]domain.Complaint, int, error) {
	items, total, err := s.complaints.List(ctx, repository.ComplaintFilter{
		Status:     filter.Status,
		Department: filter.Department,
		Priority:   filter.Priority,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, 0, util.NewInternalError(err)
	}
	return items, total, nil
}

// ListBySubmitter returns the submitter's complaints, newest first.
func (s *ComplaintService) ListBySubmitter(ctx context.Context, submitterRef string, limit int) ([]domain.Complaint, error) {
	items, err := s.complaints.ListBySubmitter(ctx, submitterRef, limit)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return items, nil
}

// History returns the complaint's full transition trail, oldest first.
func (s *ComplaintService) History(ctx context.Context, id string) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, mapLookupError(err, id)
	}
	history, err := s.complaints.History(ctx, id)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return history, nil
}

// UpdateStatus applies one state machine transition. The validation runs
// inside the store transaction, so concurrent updates each see the state
// the other produced.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id string, input StatusChangeInput) (*domain.Complaint, error) {
	var previous domain.ComplaintStatus
	updated, err := s.complaints.UpdateStatus(ctx, id, repository.StatusUpdate{
		NewStatus: input.NewStatus,
		ChangedBy: input.ChangedBy,
		Note:      input.Note,
		Validate: func(current domain.ComplaintStatus) error {
			previous = current
			if !isValidTransition(current, input.NewStatus) {
				return util.NewInvalidTransition(string(current), string(input.NewStatus))
			}
			return nil
		},
	})
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	s.logger.Info("complaint status updated",
		zap.String("complaint_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("changed_by", input.ChangedBy))

	var actor events.Actor
	switch input.ChangedBy {
	case domain.ActorAdmin:
		actor = events.Actor{Kind: events.ActorKindAdmin}
	case domain.ActorSystem:
		actor = events.Actor{Kind: events.ActorKindSystem}
	default:
		actor = citizenActor(input.ChangedBy)
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: updated.ID,
		Actor:       actor,
		Payload: events.ComplaintStatusChangedPayload{
			SubmitterRef: updated.SubmitterRef,
			OldStatus:    previous,
			NewStatus:    input.NewStatus,
			Note:         input.Note,
			Notify:       input.NotifyCitizen,
		},
	})
	return updated, nil
}

// CancelBySubmitter closes a complaint at the submitter's request. Only
// the original submitter may cancel; closing an already closed
// complaint is a no-op.
func (s *ComplaintService) CancelBySubmitter(ctx context.Context, id, submitterRef string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	if complaint.SubmitterRef != submitterRef {
		return nil, util.NewForbidden("complaint belongs to another submitter")
	}
	return s.UpdateStatus(ctx, id, StatusChangeInput{
		NewStatus: domain.ComplaintStatusClosed,
		ChangedBy: submitterRef,
		Note:      "Cancelled by submitter",
	})
}

// Stats returns aggregate counts for the admin dashboard.
func (s *ComplaintService) Stats(ctx context.Context) (*repository.Stats, error) {
	stats, err := s.complaints.Stats(ctx)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return stats, nil
}

// Departments exposes the routing table for API listings.
func (s *ComplaintService) Departments() []domain.Department {
	return s.registry.All()
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func citizenActor(ref string) events.Actor {
	return events.Actor{Kind: events.ActorKindCitizen, Ref: ref}
}

func mapLookupError(err error, id string) error {
	var domainErr *util.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return util.NewNotFound("complaint", map[string]any{"id": id})
	}
	return util.NewInternalError(err)
}

// Allowed forward steps per state. Two global rules sit on top in
// isValidTransition: any state may close, and repeating the current
// state is a permitted no-op that still logs history.
var allowedTransitions = map[domain.ComplaintStatus][]domain.ComplaintStatus{
	domain.ComplaintStatusPending:      {domain.ComplaintStatusAcknowledged, domain.ComplaintStatusInProgress},
	domain.ComplaintStatusAcknowledged: {domain.ComplaintStatusInProgress},
	domain.ComplaintStatusInProgress:   {domain.ComplaintStatusResolved},
	domain.ComplaintStatusResolved:     {},
	domain.ComplaintStatusClosed:       {},
}

func isValidTransition(current, next domain.ComplaintStatus) bool {
	if next == current {
		return true
	}
	if next == domain.ComplaintStatusClosed {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
