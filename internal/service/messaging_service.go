package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

const (
	msgRequiredFields  = "Recipients, subject, and message are required"
	msgNoRecipients    = "No valid recipients found"
	msgNoTechnicians   = "No technicians found"
	msgBroadcastFields = "Subject and message are required"
)

type messageRepository interface {
	CreateWithNotifications(ctx context.Context, message *models.Message, notifications []models.Notification) error
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	UnreadCounts(ctx context.Context) (*models.UnreadCount, error)
}

type recipientDirectory interface {
	FindByIdentifiers(ctx context.Context, identifiers []string) ([]models.Technician, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// MessagingService stores admin messages and fans them out as per-recipient
// notifications.
type MessagingService struct {
	repo       messageRepository
	recipients recipientDirectory
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewMessagingService constructs a MessagingService.
func NewMessagingService(repo messageRepository, recipients recipientDirectory, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *MessagingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagingService{repo: repo, recipients: recipients, validator: validate, metrics: metrics, logger: logger, now: time.Now}
}

// Send delivers a message to the listed technicians. Entries that match no
// technician id or username are dropped.
func (s *MessagingService) Send(ctx context.Context, from string, req models.SendMessageRequest) (*models.SendResult, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	identifiers := dedupe(req.Recipients)
	if len(identifiers) == 0 || req.Subject == "" || req.Message == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, msgRequiredFields)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid message payload")
	}

	technicians, err := s.recipients.FindByIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, internalError(err, "failed to resolve recipients")
	}
	ids := make([]string, 0, len(technicians))
	for _, tech := range technicians {
		ids = append(ids, tech.ID)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, msgNoRecipients)
	}

	message := s.newMessage(from, ids, req.Subject, req.Message, req.Priority, false)
	if err := s.store(ctx, message, models.NotificationAdminMessage, fmt.Sprintf("New message from %s", from)); err != nil {
		return nil, err
	}
	s.metrics.RecordMessage(false, len(ids))
	return &models.SendResult{Message: "Message sent successfully", MessageID: message.ID, RecipientsCount: len(ids)}, nil
}

// Broadcast delivers a message to every technician known at call time.
func (s *MessagingService) Broadcast(ctx context.Context, from string, req models.BroadcastRequest) (*models.SendResult, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Subject == "" || req.Message == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, msgBroadcastFields)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid broadcast payload")
	}

	ids, err := s.recipients.ListIDs(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load technicians")
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, msgNoTechnicians)
	}

	message := s.newMessage(from, ids, req.Subject, req.Message, req.Priority, true)
	if err := s.store(ctx, message, models.NotificationBroadcastMessage, fmt.Sprintf("Broadcast from %s", from)); err != nil {
		return nil, err
	}
	s.metrics.RecordMessage(true, len(ids))
	return &models.SendResult{Message: "Broadcast sent successfully", MessageID: message.ID, RecipientsCount: len(ids)}, nil
}

func (s *MessagingService) newMessage(from string, recipients []string, subject, body string, priority models.MessagePriority, broadcast bool) *models.Message {
	if priority == "" {
		priority = models.PriorityNormal
	}
	return &models.Message{
		Sender:      from,
		Recipients:  recipients,
		Subject:     subject,
		Body:        body,
		Priority:    priority,
		IsBroadcast: broadcast,
		CreatedAt:   s.now().UTC(),
	}
}

func (s *MessagingService) store(ctx context.Context, message *models.Message, kind models.NotificationType, title string) error {
	notifications := make([]models.Notification, 0, len(message.Recipients))
	for _, recipient := range message.Recipients {
		notifications = append(notifications, models.Notification{
			RecipientID: recipient,
			Type:        kind,
			Title:       title,
			Body:        message.Subject,
			CreatedAt:   message.CreatedAt,
		})
	}
	if err := s.repo.CreateWithNotifications(ctx, message, notifications); err != nil {
		return internalError(err, "failed to store message")
	}
	s.logger.Info("message stored",
		zap.String("message_id", message.ID),
		zap.Bool("broadcast", message.IsBroadcast),
		zap.Int("recipients", len(message.Recipients)),
	)
	return nil
}

// List returns messages newest first.
func (s *MessagingService) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	if filter.Priority != nil {
		if err := s.validator.Var(string(*filter.Priority), "oneof=low normal high urgent"); err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "priority must be one of low, normal, high, urgent")
		}
	}
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	messages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list messages")
	}
	return messages, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a message by id.
func (s *MessagingService) Get(ctx context.Context, id string) (*models.Message, error) {
	message, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Message not found", "", "failed to load message")
	}
	return message, nil
}

// MarkRead flags a message as read.
func (s *MessagingService) MarkRead(ctx context.Context, id string) error {
	return repoError(s.repo.MarkRead(ctx, id, s.now().UTC()), "Message not found", "", "failed to mark message read")
}

// Delete removes a message and its notifications.
func (s *MessagingService) Delete(ctx context.Context, id string) error {
	return repoError(s.repo.Delete(ctx, id), "Message not found", "", "failed to delete message")
}

// ListNotifications returns notifications newest first.
func (s *MessagingService) ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	items, total, err := s.repo.ListNotifications(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list notifications")
	}
	return items, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// MarkNotificationRead flags a notification as read.
func (s *MessagingService) MarkNotificationRead(ctx context.Context, id string) error {
	return repoError(s.repo.MarkNotificationRead(ctx, id, s.now().UTC()), "Notification not found", "", "failed to mark notification read")
}

// UnreadCount returns unread message and notification totals.
func (s *MessagingService) UnreadCount(ctx context.Context) (*models.UnreadCount, error) {
	counts, err := s.repo.UnreadCounts(ctx)
	if err != nil {
		return nil, internalError(err, "failed to count unread messages")
	}
	counts.Total = counts.UnreadMessages + counts.UnreadNotifications
	return counts, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
