package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

type messagingService interface {
	Send(ctx context.Context, from string, req models.SendMessageRequest) (*models.SendResult, error)
	Broadcast(ctx context.Context, from string, req models.BroadcastRequest) (*models.SendResult, error)
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Message, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error)
	MarkNotificationRead(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (*models.UnreadCount, error)
}

// MessagingHandler exposes admin to technician messaging.
type MessagingHandler struct {
	service messagingService
}

// NewMessagingHandler constructs a MessagingHandler.
func NewMessagingHandler(service messagingService) *MessagingHandler {
	return &MessagingHandler{service: service}
}

// Send godoc
// @Summary Send a message to technicians
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SendMessageRequest true "Recipients by id or username"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /messaging/send [post]
func (h *MessagingHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.service.Send(c.Request.Context(), actorName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Broadcast godoc
// @Summary Broadcast a message to every technician
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BroadcastRequest true "Broadcast payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /messaging/broadcast [post]
func (h *MessagingHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.service.Broadcast(c.Request.Context(), actorName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListMessages godoc
// @Summary List messages
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Param priority query string false "low, normal, high or urgent"
// @Param read query bool false "Read state"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} response.Envelope
// @Router /messaging/messages [get]
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	var filter models.MessageFilter
	var err error
	if raw := strings.ToLower(strings.TrimSpace(c.Query("priority"))); raw != "" {
		priority := models.MessagePriority(raw)
		switch priority {
		case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
			filter.Priority = &priority
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "priority must be one of low, normal, high, urgent"))
			return
		}
	}
	if filter.Read, err = boolQuery(c, "read"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Page, filter.Limit, err = pageParams(c); err != nil {
		response.Error(c, err)
		return
	}
	messages, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, pagination)
}

// GetMessage godoc
// @Summary Get message
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /messaging/messages/{id} [get]
func (h *MessagingHandler) GetMessage(c *gin.Context) {
	message, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, message, nil)
}

// MarkRead godoc
// @Summary Mark message as read
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /messaging/messages/{id}/read [put]
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Message marked as read"}, nil)
}

// DeleteMessage godoc
// @Summary Delete message and its notifications
// @Tags Messaging
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /messaging/messages/{id} [delete]
func (h *MessagingHandler) DeleteMessage(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListNotifications godoc
// @Summary List notifications
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Param read query bool false "Read state"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} response.Envelope
// @Router /messaging/notifications [get]
func (h *MessagingHandler) ListNotifications(c *gin.Context) {
	var filter models.NotificationFilter
	var err error
	if filter.Read, err = boolQuery(c, "read"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Page, filter.Limit, err = pageParams(c); err != nil {
		response.Error(c, err)
		return
	}
	notifications, pagination, err := h.service.ListNotifications(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// MarkNotificationRead godoc
// @Summary Mark notification as read
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /messaging/notifications/{id}/read [put]
func (h *MessagingHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.service.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Notification marked as read"}, nil)
}

// UnreadCount godoc
// @Summary Unread message and notification counts
// @Tags Messaging
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /messaging/unread-count [get]
func (h *MessagingHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, count, nil)
}
