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
	sessionSelect = `SELECT w.id, w.technician_id, t.username AS technician, COALESCE(t.department, w.department) AS department, w.start_time, w.end_time, w.created_at, (SELECT COUNT(*) FROM scans s WHERE s.session_id = w.id) AS scan_count`
	sessionFrom   = ` FROM work_sessions w LEFT JOIN technicians t ON t.id = w.technician_id WHERE 1=1`
)

// SessionRepository provides database access for work sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func sessionConditions(filter models.SessionFilter) conditions {
	var conds conditions
	if filter.DateFrom != nil {
		conds.add("w.start_time >= $%[1]d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conds.add("w.start_time <= $%[1]d", *filter.DateTo)
	}
	if filter.Department != "" {
		conds.add("COALESCE(t.department, w.department) = $%[1]d", filter.Department)
	}
	if filter.Technician != "" {
		conds.add("(w.technician_id::text = $%[1]d OR t.username = $%[1]d)", filter.Technician)
	}
	if filter.Active != nil {
		if *filter.Active {
			conds.raw("w.end_time IS NULL")
		} else {
			conds.raw("w.end_time IS NOT NULL")
		}
	}
	return conds
}

// List returns one page of sessions, most recently started first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, int, error) {
	conds := sessionConditions(filter)
	page, limit := models.NormalizePage(filter.Page, filter.Limit)

	listQuery := fmt.Sprintf("%s%s%s ORDER BY w.start_time DESC LIMIT %d OFFSET %d", sessionSelect, sessionFrom, conds.where(), limit, models.Offset(page, limit))
	sessions := make([]models.WorkSession, 0)
	if err := r.db.SelectContext(ctx, &sessions, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	markActive(sessions)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+sessionFrom+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID returns a session with its derived scan count.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.WorkSession, error) {
	query := sessionSelect + sessionFrom + " AND w.id::text = $1 LIMIT 1"
	var session models.WorkSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	session.Active = session.EndTime == nil
	return &session, nil
}

// Count returns the number of sessions matching the filter.
func (r *SessionRepository) Count(ctx context.Context, filter models.SessionFilter) (int, error) {
	conds := sessionConditions(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+sessionFrom+conds.where(), conds.args...); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return total, nil
}

// Create inserts a work session.
func (r *SessionRepository) Create(ctx context.Context, session *models.WorkSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO work_sessions (id, technician_id, department, start_time, end_time, created_at) VALUES (:id, :technician_id, :department, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return mapWriteError("create session", err)
	}
	return nil
}

func markActive(sessions []models.WorkSession) {
	for i := range sessions {
		sessions[i].Active = sessions[i].EndTime == nil
	}
}
