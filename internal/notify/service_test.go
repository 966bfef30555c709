package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/worker"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) waitForSends(t *testing.T, want int) []sentMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.sent) >= want {
			out := append([]sentMessage{}, f.sent...)
			f.mu.Unlock()
			return out
		}
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sends", want)
	return nil
}

type fakeReader struct {
	complaint *domain.Complaint
}

func (f *fakeReader) Get(_ context.Context, _ string) (*domain.Complaint, error) {
	return f.complaint, nil
}

func newTestNotifier(t *testing.T, sender Sender) (*Service, events.Dispatcher, *worker.Pool) {
	t.Helper()

	reg, err := registry.New(registry.Defaults())
	require.NoError(t, err)

	pool := worker.NewPool(1, 8, zap.NewNop())
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	complaint := sampleComplaint()
	svc := NewService(&fakeReader{complaint: complaint}, reg, sender, pool, zap.NewNop(), observability.NewMetrics())

	dispatcher := events.NewInMemoryDispatcher()
	svc.RegisterHandlers(dispatcher)
	return svc, dispatcher, pool
}

func TestStatusChangePushesWhenRequested(t *testing.T) {
	sender := &fakeSender{}
	_, dispatcher, _ := newTestNotifier(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: "SF-0007",
		Actor:       events.Actor{Kind: events.ActorKindAdmin},
		Payload: events.ComplaintStatusChangedPayload{
			SubmitterRef: "telegram:101",
			OldStatus:    domain.ComplaintStatusPending,
			NewStatus:    domain.ComplaintStatusInProgress,
			Note:         "Crew dispatched",
			Notify:       true,
		},
	})
	require.NoError(t, err)

	sent := sender.waitForSends(t, 1)
	assert.Equal(t, int64(101), sent[0].chatID)
	assert.Contains(t, sent[0].text, "Status Update")
	assert.Contains(t, sent[0].text, "Crew dispatched")
	assert.Contains(t, sent[0].text, "Delhi Jal Board")
}

func TestStatusChangeRespectsNotifyFlag(t *testing.T) {
	sender := &fakeSender{}
	_, dispatcher, pool := newTestNotifier(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: "SF-0007",
		Payload: events.ComplaintStatusChangedPayload{
			SubmitterRef: "telegram:101",
			OldStatus:    domain.ComplaintStatusPending,
			NewStatus:    domain.ComplaintStatusAcknowledged,
			Notify:       false,
		},
	})
	require.NoError(t, err)

	pool.Stop()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Empty(t, sender.sent)
}

func TestNonTelegramSubmitterSkipped(t *testing.T) {
	sender := &fakeSender{}
	_, dispatcher, pool := newTestNotifier(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: "SF-0007",
		Payload: events.ComplaintStatusChangedPayload{
			SubmitterRef: "web:3f9d",
			OldStatus:    domain.ComplaintStatusPending,
			NewStatus:    domain.ComplaintStatusResolved,
			Notify:       true,
		},
	})
	require.NoError(t, err)

	pool.Stop()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Empty(t, sender.sent)
}

func TestCreatedEventPushesConfirmation(t *testing.T) {
	sender := &fakeSender{}
	_, dispatcher, _ := newTestNotifier(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: "SF-0007",
		Actor:       events.Actor{Kind: events.ActorKindCitizen, Ref: "telegram:101"},
		Payload: events.ComplaintCreatedPayload{
			SubmitterRef:   "telegram:101",
			DepartmentID:   "water",
			DepartmentName: "Delhi Jal Board",
			Priority:       domain.PriorityHigh,
			SLAHours:       72,
			IssueType:      "water leakage",
			Notify:         true,
		},
	})
	require.NoError(t, err)

	sent := sender.waitForSends(t, 1)
	assert.Contains(t, sent[0].text, "Complaint Registered Successfully")
	assert.Contains(t, sent[0].text, "SF-0007")
}

func TestSendCustomMessage(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestNotifier(t, sender)

	require.NoError(t, svc.SendCustomMessage(context.Background(), "SF-0007", "Crew scheduled for tomorrow morning."))

	sent := sender.waitForSends(t, 1)
	assert.Contains(t, sent[0].text, "Message from SevaFlow")
	assert.Contains(t, sent[0].text, "<code>SF-0007</code>")
	assert.Contains(t, sent[0].text, "Crew scheduled for tomorrow morning.")
	assert.Contains(t, sent[0].text, "Administrative Team")
}

func TestSendCustomMessageEmptyFallsBackToStatus(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestNotifier(t, sender)

	require.NoError(t, svc.SendCustomMessage(context.Background(), "SF-0007", "  "))

	sent := sender.waitForSends(t, 1)
	assert.Contains(t, sent[0].text, "Complaint Status")
	assert.Contains(t, sent[0].text, "<code>SF-0007</code>")
}

func TestSendCustomMessageUnreachableChannel(t *testing.T) {
	sender := &fakeSender{}
	reg, err := registry.New(registry.Defaults())
	require.NoError(t, err)

	pool := worker.NewPool(1, 2, zap.NewNop())
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	complaint := sampleComplaint()
	complaint.SubmitterRef = "web:3f9d"
	svc := NewService(&fakeReader{complaint: complaint}, reg, sender, pool, zap.NewNop(), nil)

	err = svc.SendCustomMessage(context.Background(), "SF-0007", "hello")
	require.Error(t, err)
}
