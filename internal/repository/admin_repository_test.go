package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/models"
)

var adminCols = []string{"id", "username", "email", "password_hash", "name", "surname", "department", "role", "created_at", "updated_at"}

func TestAdminFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(adminCols).AddRow("a1", "admin", "admin@example.com", "hash", "Ada", "Admin", "QA", "admin", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + adminColumns + " FROM admin_accounts WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	account, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", account.Email)
	assert.Equal(t, models.RoleAdmin, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("FROM admin_accounts WHERE username").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdminExistsByUsernameOrEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM admin_accounts WHERE username = $1 OR lower(email) = lower($2))")).
		WithArgs("admin", "admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "admin", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAdminCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO admin_accounts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admin_accounts_username_key"})

	err := repo.Create(context.Background(), &models.AdminAccount{Username: "admin", Email: "a@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAdminUpdateDepartmentMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE admin_accounts SET department = $2")).
		WithArgs("missing", "Ops", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDepartment(context.Background(), "missing", "Ops")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
