package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/screen-admin-api/internal/models"
)

const technicianColumns = `id, username, name, surname, email, department, created_at, updated_at`

// DepartmentUsers is the technician headcount of a department.
type DepartmentUsers struct {
	Department string `db:"department"`
	Users      int    `db:"users"`
}

// TechnicianRepository provides database access for technicians.
type TechnicianRepository struct {
	db *sqlx.DB
}

// NewTechnicianRepository creates a new instance of TechnicianRepository.
func NewTechnicianRepository(db *sqlx.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

// List returns technicians matching the filter with the filtered total.
func (r *TechnicianRepository) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error) {
	var conds conditions
	if filter.Department != "" {
		conds.add("department = $%[1]d", filter.Department)
	}
	if filter.Search != "" {
		conds.add("(LOWER(username) LIKE $%[1]d OR LOWER(name) LIKE $%[1]d OR LOWER(surname) LIKE $%[1]d OR LOWER(COALESCE(email, '')) LIKE $%[1]d)", likePattern(filter.Search))
	}
	baseQuery := `FROM technicians WHERE 1=1` + conds.where()

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY username ASC LIMIT %d OFFSET %d", technicianColumns, baseQuery, limit, models.Offset(page, limit))

	technicians := make([]models.Technician, 0)
	if err := r.db.SelectContext(ctx, &technicians, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list technicians: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count technicians: %w", err)
	}
	return technicians, total, nil
}

// FindByID returns a technician by identifier.
func (r *TechnicianRepository) FindByID(ctx context.Context, id string) (*models.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id::text = $1 LIMIT 1`
	var technician models.Technician
	if err := r.db.GetContext(ctx, &technician, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find technician by id: %w", err)
	}
	return &technician, nil
}

// FindByIdentifiers resolves technicians whose id or username is listed.
func (r *TechnicianRepository) FindByIdentifiers(ctx context.Context, identifiers []string) ([]models.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id::text = ANY($1) OR username = ANY($1) ORDER BY username ASC`
	technicians := make([]models.Technician, 0)
	if err := r.db.SelectContext(ctx, &technicians, query, pq.Array(identifiers)); err != nil {
		return nil, fmt.Errorf("find technicians by identifiers: %w", err)
	}
	return technicians, nil
}

// ListIDs returns every technician id.
func (r *TechnicianRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM technicians ORDER BY username ASC`); err != nil {
		return nil, fmt.Errorf("list technician ids: %w", err)
	}
	return ids, nil
}

// Create inserts a technician.
func (r *TechnicianRepository) Create(ctx context.Context, technician *models.Technician) error {
	if technician.ID == "" {
		technician.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if technician.CreatedAt.IsZero() {
		technician.CreatedAt = now
	}
	technician.UpdatedAt = now

	const query = `INSERT INTO technicians (id, username, name, surname, email, department, created_at, updated_at) VALUES (:id, :username, :name, :surname, :email, :department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, technician); err != nil {
		return mapWriteError("create technician", err)
	}
	return nil
}

// Update writes every mutable technician field.
func (r *TechnicianRepository) Update(ctx context.Context, technician *models.Technician) error {
	technician.UpdatedAt = time.Now().UTC()
	const query = `UPDATE technicians SET username = :username, name = :name, surname = :surname, email = :email, department = :department, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, technician)
	if err != nil {
		return mapWriteError("update technician", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a technician. Their scans and sessions keep a null
// technician reference.
func (r *TechnicianRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM technicians WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete technician: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the number of technicians.
func (r *TechnicianRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM technicians`); err != nil {
		return 0, fmt.Errorf("count technicians: %w", err)
	}
	return total, nil
}

// DepartmentCounts groups technicians by department.
func (r *TechnicianRepository) DepartmentCounts(ctx context.Context) ([]DepartmentUsers, error) {
	rows := make([]DepartmentUsers, 0)
	if err := r.db.SelectContext(ctx, &rows, `SELECT department, COUNT(*) AS users FROM technicians GROUP BY department ORDER BY department`); err != nil {
		return nil, fmt.Errorf("count technicians by department: %w", err)
	}
	return rows, nil
}
