package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/screen-admin-api/internal/models"
)

const (
	messageColumns      = `id, sender, recipients, subject, body, priority, is_broadcast, read, read_at, created_at`
	notificationColumns = `id, message_id, recipient_id, type, title, body, read, read_at, created_at`
)

// MessageRepository persists admin messages and their notifications.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateWithNotifications stores a message and one notification per
// recipient atomically.
func (r *MessageRepository) CreateWithNotifications(ctx context.Context, message *models.Message, notifications []models.Notification) (err error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin message tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertMessage = `INSERT INTO messages (id, sender, recipients, subject, body, priority, is_broadcast, read, read_at, created_at) VALUES (:id, :sender, :recipients, :subject, :body, :priority, :is_broadcast, :read, :read_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertMessage, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	const insertNotification = `INSERT INTO notifications (id, message_id, recipient_id, type, title, body, read, read_at, created_at) VALUES (:id, :message_id, :recipient_id, :type, :title, :body, :read, :read_at, :created_at)`
	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.MessageID = message.ID
		if n.CreatedAt.IsZero() {
			n.CreatedAt = message.CreatedAt
		}
		if _, err = tx.NamedExecContext(ctx, insertNotification, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit message tx: %w", err)
	}
	return nil
}

// List returns messages newest first with the filtered total.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	var conds conditions
	if filter.Priority != nil {
		conds.add("priority = $%[1]d", string(*filter.Priority))
	}
	if filter.Read != nil {
		conds.add("read = $%[1]d", *filter.Read)
	}
	baseQuery := `FROM messages WHERE 1=1` + conds.where()
	page, limit := models.NormalizePage(filter.Page, filter.Limit)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", messageColumns, baseQuery, limit, models.Offset(page, limit))
	messages := make([]models.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return messages, total, nil
}

// FindByID returns a message by identifier.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id::text = $1 LIMIT 1`
	var message models.Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find message by id: %w", err)
	}
	return &message, nil
}

// MarkRead flags a message as read. Marking twice keeps the first read_at.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE messages SET read = TRUE, read_at = COALESCE(read_at, $2) WHERE id::text = $1`
	return execOne(ctx, r.db, "mark message read", query, id, at)
}

// Delete removes a message together with its notifications.
func (r *MessageRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete message tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM notifications WHERE message_id::text = $1`, id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete message rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete message: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first with the filtered
// total.
func (r *MessageRepository) ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var conds conditions
	if filter.Read != nil {
		conds.add("read = $%[1]d", *filter.Read)
	}
	baseQuery := `FROM notifications WHERE 1=1` + conds.where()
	page, limit := models.NormalizePage(filter.Page, filter.Limit)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", notificationColumns, baseQuery, limit, models.Offset(page, limit))
	notifications := make([]models.Notification, 0)
	if err := r.db.SelectContext(ctx, &notifications, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkNotificationRead flags a notification as read.
func (r *MessageRepository) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $2) WHERE id::text = $1`
	return execOne(ctx, r.db, "mark notification read", query, id, at)
}

// UnreadCounts returns unread message and notification totals.
func (r *MessageRepository) UnreadCounts(ctx context.Context) (*models.UnreadCount, error) {
	const query = `SELECT (SELECT COUNT(*) FROM messages WHERE read = FALSE) AS unread_messages, (SELECT COUNT(*) FROM notifications WHERE read = FALSE) AS unread_notifications`
	var counts models.UnreadCount
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	counts.Total = counts.UnreadMessages + counts.UnreadNotifications
	return &counts, nil
}

func execOne(ctx context.Context, db *sqlx.DB, op, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
