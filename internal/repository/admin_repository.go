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

const adminColumns = `id, username, email, password_hash, name, surname, department, role, created_at, updated_at`

// AdminRepository provides database access for administrator credentials.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an account by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_accounts WHERE username = $1 LIMIT 1`
	var account models.AdminAccount
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_accounts WHERE id = $1 LIMIT 1`
	var account models.AdminAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &account, nil
}

// ExistsByUsernameOrEmail reports whether either identifier is taken.
func (r *AdminRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admin_accounts WHERE username = $1 OR lower(email) = lower($2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, email); err != nil {
		return false, fmt.Errorf("check admin exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new account. A concurrent duplicate surfaces as
// ErrDuplicate.
func (r *AdminRepository) Create(ctx context.Context, account *models.AdminAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Role == "" {
		account.Role = models.RoleAdmin
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `INSERT INTO admin_accounts (id, username, email, password_hash, name, surname, department, role, created_at, updated_at) VALUES (:id, :username, :email, :password_hash, :name, :surname, :department, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return mapWriteError("create admin account", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE admin_accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return r.updateOne(ctx, "update admin password", query, id, passwordHash, time.Now().UTC())
}

// UpdateDepartment changes the account department.
func (r *AdminRepository) UpdateDepartment(ctx context.Context, id, department string) error {
	const query = `UPDATE admin_accounts SET department = $2, updated_at = $3 WHERE id = $1`
	return r.updateOne(ctx, "update admin department", query, id, department, time.Now().UTC())
}

func (r *AdminRepository) updateOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
