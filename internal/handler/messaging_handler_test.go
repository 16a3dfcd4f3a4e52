package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

type fakeMessagingService struct {
	from        string
	sent        *models.SendMessageRequest
	broadcast   *models.BroadcastRequest
	filter      models.MessageFilter
	notifFilter models.NotificationFilter
	read        []string
}

func (f *fakeMessagingService) Send(_ context.Context, from string, req models.SendMessageRequest) (*models.SendResult, error) {
	f.from = from
	f.sent = &req
	if len(req.Recipients) == 1 && req.Recipients[0] == "tech1" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "No valid recipients found")
	}
	return &models.SendResult{Message: "Message sent successfully", MessageID: "m1", RecipientsCount: len(req.Recipients)}, nil
}

func (f *fakeMessagingService) Broadcast(_ context.Context, from string, req models.BroadcastRequest) (*models.SendResult, error) {
	f.from = from
	f.broadcast = &req
	return &models.SendResult{Message: "Broadcast sent successfully", MessageID: "m2", RecipientsCount: 4}, nil
}

func (f *fakeMessagingService) List(_ context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	f.filter = filter
	return []models.Message{}, models.NewPagination(filter.Page, filter.Limit, 0), nil
}

func (f *fakeMessagingService) Get(_ context.Context, id string) (*models.Message, error) {
	if id != "m1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Message not found")
	}
	return &models.Message{ID: "m1", Subject: "Shift"}, nil
}

func (f *fakeMessagingService) MarkRead(ctx context.Context, id string) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.read = append(f.read, id)
	return nil
}

func (f *fakeMessagingService) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *fakeMessagingService) ListNotifications(_ context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	f.notifFilter = filter
	return []models.Notification{}, models.NewPagination(filter.Page, filter.Limit, 0), nil
}

func (f *fakeMessagingService) MarkNotificationRead(_ context.Context, id string) error {
	if id != "n1" {
		return appErrors.Clone(appErrors.ErrNotFound, "Notification not found")
	}
	return nil
}

func (f *fakeMessagingService) UnreadCount(context.Context) (*models.UnreadCount, error) {
	return &models.UnreadCount{UnreadMessages: 2, UnreadNotifications: 3, Total: 5}, nil
}

func buildMessagingRouter(svc *fakeMessagingService) *gin.Engine {
	h := NewMessagingHandler(svc)
	r := newTestEngine()
	r.Use(asAdmin("admin"))
	r.POST("/messaging/send", h.Send)
	r.POST("/messaging/broadcast", h.Broadcast)
	r.GET("/messaging/messages", h.ListMessages)
	r.GET("/messaging/messages/:id", h.GetMessage)
	r.PUT("/messaging/messages/:id/read", h.MarkRead)
	r.DELETE("/messaging/messages/:id", h.DeleteMessage)
	r.GET("/messaging/notifications", h.ListNotifications)
	r.PUT("/messaging/notifications/:id/read", h.MarkNotificationRead)
	r.GET("/messaging/unread-count", h.UnreadCount)
	return r
}

func TestMessagingHandlerSendUsesCurrentAdmin(t *testing.T) {
	svc := &fakeMessagingService{}
	r := buildMessagingRouter(svc)

	req, _ := http.NewRequest(http.MethodPost, "/messaging/send", bytes.NewBufferString(`{"recipients":["alice","bob"],"subject":"Shift","message":"Start at 8","priority":"high"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(r, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	assert.Equal(t, "admin", svc.from)
	require.NotNil(t, svc.sent)
	assert.Equal(t, models.PriorityHigh, svc.sent.Priority)

	var result models.SendResult
	decodeData(t, resp, &result)
	assert.Equal(t, 2, result.RecipientsCount)
}

func TestMessagingHandlerSendUnknownRecipient(t *testing.T) {
	r := buildMessagingRouter(&fakeMessagingService{})

	req, _ := http.NewRequest(http.MethodPost, "/messaging/send", bytes.NewBufferString(`{"recipients":["tech1"],"subject":"Hi","message":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(r, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No valid recipients found", decodeEnvelope(t, resp).Error.Message)
}

func TestMessagingHandlerBroadcast(t *testing.T) {
	svc := &fakeMessagingService{}
	r := buildMessagingRouter(svc)

	req, _ := http.NewRequest(http.MethodPost, "/messaging/broadcast", bytes.NewBufferString(`{"subject":"Notice","message":"Office closed"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(r, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.broadcast)
	assert.Equal(t, "Notice", svc.broadcast.Subject)
}

func TestMessagingHandlerListFilters(t *testing.T) {
	svc := &fakeMessagingService{}
	r := buildMessagingRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/messaging/messages?priority=URGENT&read=false&page=3", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.filter.Priority)
	assert.Equal(t, models.PriorityUrgent, *svc.filter.Priority)
	require.NotNil(t, svc.filter.Read)
	assert.False(t, *svc.filter.Read)
	assert.Equal(t, 3, svc.filter.Page)

	req, _ = http.NewRequest(http.MethodGet, "/messaging/messages?priority=critical", nil)
	assert.Equal(t, http.StatusBadRequest, performRequest(r, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/messaging/notifications?read=true", nil)
	require.Equal(t, http.StatusOK, performRequest(r, req).Code)
	require.NotNil(t, svc.notifFilter.Read)
	assert.True(t, *svc.notifFilter.Read)
}

func TestMessagingHandlerMessageLifecycle(t *testing.T) {
	svc := &fakeMessagingService{}
	r := buildMessagingRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/messaging/messages/m1", nil)
	assert.Equal(t, http.StatusOK, performRequest(r, req).Code)

	req, _ = http.NewRequest(http.MethodPut, "/messaging/messages/m1/read", nil)
	assert.Equal(t, http.StatusOK, performRequest(r, req).Code)
	assert.Equal(t, []string{"m1"}, svc.read)

	req, _ = http.NewRequest(http.MethodDelete, "/messaging/messages/m1", nil)
	assert.Equal(t, http.StatusNoContent, performRequest(r, req).Code)

	req, _ = http.NewRequest(http.MethodDelete, "/messaging/messages/m9", nil)
	assert.Equal(t, http.StatusNotFound, performRequest(r, req).Code)

	req, _ = http.NewRequest(http.MethodPut, "/messaging/notifications/n9/read", nil)
	assert.Equal(t, http.StatusNotFound, performRequest(r, req).Code)
}

func TestMessagingHandlerUnreadCount(t *testing.T) {
	r := buildMessagingRouter(&fakeMessagingService{})

	req, _ := http.NewRequest(http.MethodGet, "/messaging/unread-count", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var count models.UnreadCount
	decodeData(t, resp, &count)
	assert.Equal(t, 5, count.Total)
}
