package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

type mockAdminRepo struct {
	accounts  map[string]*models.AdminAccount
	findErr   error
	createErr error
	nextID    int
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{accounts: map[string]*models.AdminAccount{}}
}

func (m *mockAdminRepo) FindByUsername(_ context.Context, username string) (*models.AdminAccount, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, acc := range m.accounts {
		if acc.Username == username {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(_ context.Context, id string) (*models.AdminAccount, error) {
	acc, ok := m.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *acc
	return &copied, nil
}

func (m *mockAdminRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, acc := range m.accounts {
		if acc.Username == username || acc.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAdminRepo) Create(_ context.Context, account *models.AdminAccount) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	account.ID = "admin-" + string(rune('0'+m.nextID))
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *mockAdminRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	acc, ok := m.accounts[id]
	if !ok {
		return sql.ErrNoRows
	}
	acc.PasswordHash = passwordHash
	return nil
}

func (m *mockAdminRepo) UpdateDepartment(_ context.Context, id, department string) error {
	acc, ok := m.accounts[id]
	if !ok {
		return sql.ErrNoRows
	}
	acc.Department = department
	return nil
}

func newTestAuthService(repo *mockAdminRepo, secret string) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{Secret: secret, Expiry: 24 * time.Hour, Issuer: "screen-admin-api"})
}

func registerAlice(t *testing.T, svc *AuthService) *models.AdminAccount {
	t.Helper()
	acc, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:   "alice",
		Password:   "correct-horse",
		Email:      "alice@example.com",
		Department: "QA",
	})
	require.NoError(t, err)
	return acc
}

func TestAuthServiceRegisterHashesPassword(t *testing.T) {
	repo := newMockAdminRepo()
	svc := newTestAuthService(repo, "secret")

	acc := registerAlice(t, svc)

	stored := repo.accounts[acc.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, passwordHashCost, cost)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	repo := newMockAdminRepo()
	svc := newTestAuthService(repo, "secret")
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice", Password: "another-pass", Email: "other@example.com", Department: "QA",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Username: "bob", Password: "another-pass", Email: "alice@example.com", Department: "QA",
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAuthServiceRegisterRaceMapsUniqueViolation(t *testing.T) {
	repo := newMockAdminRepo()
	repo.createErr = repository.ErrDuplicate
	svc := newTestAuthService(repo, "secret")

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "carol", Password: "password123", Email: "carol@example.com", Department: "Ops",
	})
	require.Error(t, err)
	assert.Equal(t, "Username or email already exists", appErrors.FromError(err).Message)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "al", Password: "short"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.NotEmpty(t, appErr.Details)
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	registerAlice(t, svc)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, int64(86400), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.User.Username)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	profile, err := svc.Profile(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, models.RoleAdmin, profile.Role)
}

func TestAuthServiceLoginDoesNotEnumerateUsers(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	registerAlice(t, svc)

	_, wrongPass := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "nope"})
	_, unknown := svc.Login(context.Background(), models.LoginRequest{Username: "mallory", Password: "nope"})

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, appErrors.FromError(wrongPass), appErrors.FromError(unknown))
	assert.Equal(t, 401, appErrors.FromError(unknown).Status)
}

func TestAuthServiceLoginRepositoryFailure(t *testing.T) {
	repo := newMockAdminRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestAuthService(repo, "secret")

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 500, appErr.Status)
	assert.NotContains(t, appErr.Message, "connection reset")
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	acc := registerAlice(t, svc)
	token, err := svc.IssueToken(acc)
	require.NoError(t, err)

	other := newTestAuthService(newMockAdminRepo(), "different")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidToken))

	_, err = svc.ValidateToken("not-a-jwt")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidToken))
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	acc := registerAlice(t, svc)

	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.IssueToken(acc)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestAuthServiceValidateTokenWithoutUsername(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	claims := models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "screen-admin-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidToken))
}

func TestAuthServiceMissingSecret(t *testing.T) {
	repo := newMockAdminRepo()
	svc := newTestAuthService(repo, "")
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)

	_, err = svc.ValidateToken("anything")
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	acc := registerAlice(t, svc)
	claims := &models.JWTClaims{Username: acc.Username, RegisteredClaims: jwt.RegisteredClaims{Subject: acc.ID}}

	err := svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-password"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	err = svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "correct-horse", NewPassword: "new-password"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice", "new-password")
	assert.NoError(t, err)
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	acc := registerAlice(t, svc)
	claims := &models.JWTClaims{Username: acc.Username, RegisteredClaims: jwt.RegisteredClaims{Subject: acc.ID}}

	updated, err := svc.UpdateProfile(context.Background(), claims, models.UpdateProfileRequest{Department: " Repairs "})
	require.NoError(t, err)
	assert.Equal(t, "Repairs", updated.Department)
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	svc := newTestAuthService(newMockAdminRepo(), "secret")
	req := models.RegisterRequest{Username: "root", Password: "bootstrap-pass", Department: "IT"}

	created, err := svc.EnsureAdmin(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureAdmin(context.Background(), models.RegisterRequest{})
	require.NoError(t, err)
	assert.False(t, created)
}
