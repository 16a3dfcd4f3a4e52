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
	scanSelect = `SELECT s.id, s.barcode, s.status, s.timestamp, s.technician_id, t.username AS technician, COALESCE(t.department, s.department) AS department, s.session_id, s.archived_at, s.created_at, s.updated_at`
	scanFrom   = ` FROM scans s LEFT JOIN technicians t ON t.id = s.technician_id WHERE 1=1`
)

// DepartmentScans is the scan volume attributed to a department through the
// scanning technician.
type DepartmentScans struct {
	Department string `db:"department"`
	Scans      int    `db:"scans"`
}

// ScanRepository provides database access for scan records.
type ScanRepository struct {
	db *sqlx.DB
}

// NewScanRepository creates a new instance of ScanRepository.
func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func scanConditions(filter models.ScanFilter) conditions {
	var conds conditions
	if !filter.IncludeArchived {
		conds.raw("s.archived_at IS NULL")
	}
	if filter.DateFrom != nil {
		conds.add("s.timestamp >= $%[1]d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conds.add("s.timestamp <= $%[1]d", *filter.DateTo)
	}
	if filter.Status != nil {
		conds.add("s.status = $%[1]d", string(*filter.Status))
	}
	if filter.Department != "" {
		conds.add("COALESCE(t.department, s.department) = $%[1]d", filter.Department)
	}
	if filter.Technician != "" {
		conds.add("(s.technician_id::text = $%[1]d OR t.username = $%[1]d)", filter.Technician)
	}
	if filter.Search != "" {
		conds.add("LOWER(s.barcode) LIKE $%[1]d", likePattern(filter.Search))
	}
	if filter.SessionID != "" {
		conds.add("s.session_id::text = $%[1]d", filter.SessionID)
	}
	return conds
}

// List returns one page of scans, newest first, and the filtered total.
func (r *ScanRepository) List(ctx context.Context, filter models.ScanFilter) ([]models.ScanRecord, int, error) {
	conds := scanConditions(filter)
	page, limit := models.NormalizePage(filter.Page, filter.Limit)

	listQuery := fmt.Sprintf("%s%s%s ORDER BY s.timestamp DESC LIMIT %d OFFSET %d", scanSelect, scanFrom, conds.where(), limit, models.Offset(page, limit))
	scans := make([]models.ScanRecord, 0)
	if err := r.db.SelectContext(ctx, &scans, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list scans: %w", err)
	}
	markArchived(scans)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+scanFrom+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count scans: %w", err)
	}
	return scans, total, nil
}

// ListAll returns every matching scan, newest first, up to max rows.
func (r *ScanRepository) ListAll(ctx context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error) {
	conds := scanConditions(filter)
	query := scanSelect + scanFrom + conds.where() + " ORDER BY s.timestamp DESC"
	if max > 0 {
		query += fmt.Sprintf(" LIMIT %d", max)
	}
	scans := make([]models.ScanRecord, 0)
	if err := r.db.SelectContext(ctx, &scans, query, conds.args...); err != nil {
		return nil, fmt.Errorf("list all scans: %w", err)
	}
	markArchived(scans)
	return scans, nil
}

// Count returns the number of scans matching the filter.
func (r *ScanRepository) Count(ctx context.Context, filter models.ScanFilter) (int, error) {
	conds := scanConditions(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+scanFrom+conds.where(), conds.args...); err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return total, nil
}

// StatusCounts groups matching scans by status.
func (r *ScanRepository) StatusCounts(ctx context.Context, filter models.ScanFilter) ([]models.StatusCount, error) {
	conds := scanConditions(filter)
	rows := make([]models.StatusCount, 0)
	query := "SELECT s.status, COUNT(*) AS count" + scanFrom + conds.where() + " GROUP BY s.status"
	if err := r.db.SelectContext(ctx, &rows, query, conds.args...); err != nil {
		return nil, fmt.Errorf("count scans by status: %w", err)
	}
	return rows, nil
}

// DepartmentCounts attributes active scans to the department of their
// technician. Scans without a known technician are not attributed.
func (r *ScanRepository) DepartmentCounts(ctx context.Context) ([]DepartmentScans, error) {
	const query = `SELECT t.department AS department, COUNT(s.id) AS scans FROM scans s JOIN technicians t ON t.id = s.technician_id WHERE s.archived_at IS NULL GROUP BY t.department ORDER BY t.department`
	rows := make([]DepartmentScans, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count scans by department: %w", err)
	}
	return rows, nil
}

// FindByID returns a scan, archived or not.
func (r *ScanRepository) FindByID(ctx context.Context, id string) (*models.ScanRecord, error) {
	query := scanSelect + scanFrom + " AND s.id::text = $1 LIMIT 1"
	var scan models.ScanRecord
	if err := r.db.GetContext(ctx, &scan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find scan by id: %w", err)
	}
	scan.Archived = scan.ArchivedAt != nil
	return &scan, nil
}

// Create inserts a scan record.
func (r *ScanRepository) Create(ctx context.Context, scan *models.ScanRecord) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = now
	}
	scan.UpdatedAt = now
	const query = `INSERT INTO scans (id, barcode, status, timestamp, technician_id, department, session_id, archived_at, created_at, updated_at) VALUES (:id, :barcode, :status, :timestamp, :technician_id, :department, :session_id, :archived_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, scan); err != nil {
		return mapWriteError("create scan", err)
	}
	return nil
}

// Update writes the editable scan fields.
func (r *ScanRepository) Update(ctx context.Context, scan *models.ScanRecord) error {
	scan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scans SET barcode = :barcode, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, scan)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a scan permanently.
func (r *ScanRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Archive flags an active scan as archived. Already archived or missing
// scans yield sql.ErrNoRows.
func (r *ScanRepository) Archive(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE scans SET archived_at = $2, updated_at = $2 WHERE id::text = $1 AND archived_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("archive scan: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func markArchived(scans []models.ScanRecord) {
	for i := range scans {
		scans[i].Archived = scans[i].ArchivedAt != nil
	}
}
