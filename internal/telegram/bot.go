package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/notify"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/pkg/util"
)

// MinBotComplaintRunes is the bot's own floor for free-text
// submissions, stricter than the API floor so throwaway chat messages
// never become complaints.
const MinBotComplaintRunes = 15

const pollRetryDelay = 3 * time.Second

// Bot runs the citizen Telegram channel: long-polls for updates,
// dispatches commands and treats free text as complaint submissions.
type Bot struct {
	client      *Client
	complaints  *service.ComplaintService
	registry    *registry.Registry
	logger      *zap.Logger
	pollTimeout time.Duration
}

// NewBot wires the bot.
func NewBot(client *Client, complaints *service.ComplaintService, reg *registry.Registry, pollTimeout time.Duration, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		client:      client,
		complaints:  complaints,
		registry:    reg,
		logger:      logger,
		pollTimeout: pollTimeout,
	}
}

// Run verifies the token and polls until ctx is cancelled. Poll errors
// are logged and retried; only cancellation ends the loop.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram identity check: %w", err)
	}
	b.logger.Info("telegram bot online", zap.String("username", me.Username))

	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("telegram poll failed", zap.Error(err))
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}
	b.handleSubmission(ctx, msg, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *Message, text string) {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	// Group chats append the bot handle: "/status@SevaFlowBot SF-1".
	command, _, _ = strings.Cut(command, "@")
	args := fields[1:]

	switch command {
	case "/start":
		b.reply(ctx, msg.Chat.ID, notify.FormatWelcome(msg.From.DisplayName()))
	case "/help":
		b.reply(ctx, msg.Chat.ID, notify.FormatHelp())
	case "/status":
		b.handleStatus(ctx, msg, args)
	case "/mycomplaints":
		b.handleMyComplaints(ctx, msg)
	case "/cancel":
		b.handleCancel(ctx, msg, args)
	default:
		b.reply(ctx, msg.Chat.ID, "❓ Unknown command. Type /help to see what I can do.")
	}
}

func (b *Bot) handleStatus(ctx context.Context, msg *Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg.Chat.ID,
			"❓ Please provide your complaint Reference ID.\n\nUsage: /status SF-0001")
		return
	}
	id := strings.ToUpper(args[0])

	complaint, err := b.complaints.Get(ctx, id)
	if err != nil {
		b.replyLookupError(ctx, msg.Chat.ID, id, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, notify.FormatStatus(complaint, b.departmentName(complaint.DepartmentID)))
}

func (b *Bot) handleMyComplaints(ctx context.Context, msg *Message) {
	complaints, err := b.complaints.ListBySubmitter(ctx, submitterRef(msg.From.ID), 10)
	if err != nil {
		b.logger.Warn("listing complaints failed", zap.Error(err))
		b.reply(ctx, msg.Chat.ID, "❌ An unexpected error occurred. Please try again.")
		return
	}
	b.reply(ctx, msg.Chat.ID, notify.FormatMyComplaints(complaints))
}

func (b *Bot) handleCancel(ctx context.Context, msg *Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg.Chat.ID,
			"❓ Please provide the Reference ID to cancel.\n\nUsage: /cancel SF-0001")
		return
	}
	id := strings.ToUpper(args[0])

	complaint, err := b.complaints.CancelBySubmitter(ctx, id, submitterRef(msg.From.ID))
	if err != nil {
		domainErr := util.ToDomainError(err)
		if domainErr.Code == "FORBIDDEN" {
			b.reply(ctx, msg.Chat.ID, "❌ You can only cancel complaints you submitted yourself.")
			return
		}
		b.replyLookupError(ctx, msg.Chat.ID, id, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ Complaint <code>%s</code> has been cancelled.\n\nIf the issue returns, just describe it again to file a new complaint.",
		complaint.ID))
}

func (b *Bot) handleSubmission(ctx context.Context, msg *Message, text string) {
	if utf8.RuneCountInString(text) < MinBotComplaintRunes {
		b.reply(ctx, msg.Chat.ID,
			"📝 Please describe your complaint in more detail.\n\n"+
				"Include information like:\n"+
				"• What the issue is\n"+
				"• Where it's located\n"+
				"• How long it's been a problem")
		return
	}

	complaint, err := b.complaints.Submit(ctx, service.SubmitInput{
		SubmitterRef:  submitterRef(msg.From.ID),
		SubmitterName: msg.From.DisplayName(),
		Text:          text,
	})
	if err != nil {
		b.logger.Error("complaint submission failed", zap.Error(err))
		b.reply(ctx, msg.Chat.ID,
			"❌ Sorry, there was an error processing your complaint.\n\n"+
				"Please try again in a moment, or contact support if the issue persists.")
		return
	}

	b.reply(ctx, msg.Chat.ID, notify.FormatRegistration(complaint, b.departmentName(complaint.DepartmentID)))
}

func (b *Bot) replyLookupError(ctx context.Context, chatID int64, id string, err error) {
	var domainErr *util.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
		b.reply(ctx, chatID, fmt.Sprintf(
			"🔍 Complaint <code>%s</code> not found.\n\nPlease check the Reference ID and try again.", id))
		return
	}
	b.logger.Warn("complaint lookup failed", zap.String("complaint_id", id), zap.Error(err))
	b.reply(ctx, chatID, "❌ An unexpected error occurred. Please try again.")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Warn("telegram reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) departmentName(id string) string {
	if dept, ok := b.registry.LookupByID(id); ok {
		return dept.Name
	}
	return id
}

func submitterRef(userID int64) string {
	return fmt.Sprintf("telegram:%d", userID)
}
