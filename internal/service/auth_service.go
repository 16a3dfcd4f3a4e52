package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

// passwordHashCost is the bcrypt work factor for stored passwords.
const passwordHashCost = 10

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	FindByID(ctx context.Context, id string) (*models.AdminAccount, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, account *models.AdminAccount) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDepartment(ctx context.Context, id, department string) error
}

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret  string
	Expiry  time.Duration
	Issuer  string
	Metrics *MetricsService
}

// AuthService registers and authenticates administrators and issues session
// tokens.
type AuthService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo adminRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Register stores a new administrator. Username and email must both be unused.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AdminAccount, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing accounts")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Username or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.AdminAccount{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Department:   strings.TrimSpace(req.Department),
		Role:         models.RoleAdmin,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Username or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.logger.Info("admin account registered", zap.String("username", account.Username))
	return account, nil
}

// Authenticate verifies credentials. Unknown usernames and wrong passwords
// yield the same error and comparable latency.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.AdminAccount, error) {
	invalid := appErrors.Clone(appErrors.ErrInvalidCredentials, "")

	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
			return nil, invalid
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return account, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "username and password are required")
	}

	account, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.config.Metrics.RecordLogin(false)
		return nil, err
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, err
	}
	s.config.Metrics.RecordLogin(true)

	return &models.LoginResponse{
		Message:   "Login successful",
		Token:     token,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		User:      account.Info(),
	}, nil
}

// IssueToken signs a session token for the account.
func (s *AuthService) IssueToken(account *models.AdminAccount) (string, error) {
	if s.config.Secret == "" {
		return "", missingSigningKey()
	}
	now := s.now().UTC()
	claims := models.JWTClaims{
		Username:   account.Username,
		Email:      account.Email,
		Role:       account.Role,
		Department: account.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	if s.config.Secret == "" {
		return nil, missingSigningKey()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}
	if strings.TrimSpace(claims.Username) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token payload missing username")
	}
	return claims, nil
}

// Profile loads the account behind a validated token.
func (s *AuthService) Profile(ctx context.Context, claims *models.JWTClaims) (*models.AdminAccount, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var (
		account *models.AdminAccount
		err     error
	)
	if claims.Subject != "" {
		account, err = s.repo.FindByID(ctx, claims.Subject)
	} else {
		account, err = s.repo.FindByUsername(ctx, claims.Username)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return account, nil
}

// UpdateProfile changes the account department.
func (s *AuthService) UpdateProfile(ctx context.Context, claims *models.JWTClaims, req models.UpdateProfileRequest) (*models.AdminAccount, error) {
	req.Department = strings.TrimSpace(req.Department)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	account, err := s.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDepartment(ctx, account.ID, req.Department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	account.Department = req.Department
	return account, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid password payload")
	}
	account, err := s.Profile(ctx, claims)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), passwordHashCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// EnsureAdmin registers the bootstrap administrator when it does not exist
// yet. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, req models.RegisterRequest) (bool, error) {
	if req.Username == "" || req.Password == "" {
		return false, nil
	}
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	if req.Email == "" {
		req.Email = req.Username + "@localhost.localdomain"
	}
	if _, err := s.Register(ctx, req); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), passwordHashCost)
		if err != nil {
			s.logger.Error("failed to prepare placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func missingSigningKey() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInternal, "token signing key not configured")
}
