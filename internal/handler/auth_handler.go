package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AdminAccount, error)
	Profile(ctx context.Context, claims *models.JWTClaims) (*models.AdminAccount, error)
	UpdateProfile(ctx context.Context, claims *models.JWTClaims, req models.UpdateProfileRequest) (*models.AdminAccount, error)
	ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service            authService
	enableRegistration bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, enableRegistration bool) *AuthHandler {
	return &AuthHandler{service: svc, enableRegistration: enableRegistration}
}

// Login godoc
// @Summary Authenticate administrator
// @Description Authenticate by username and password and receive a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(logger.ActorKey, res.User.Username)
	response.JSON(c, http.StatusOK, res, nil)
}

// Register godoc
// @Summary Register administrator
// @Description Create an administrator account when registration is enabled
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.enableRegistration {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "registration is disabled"))
		return
	}
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	account, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(logger.ActorKey, account.Username)
	response.Created(c, gin.H{"message": "Admin registered successfully", "user": account.Info()})
}

// Profile godoc
// @Summary Current administrator
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	account, err := h.service.Profile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.ProfileResponse{User: account.Info()}, nil)
}

// UpdateProfile godoc
// @Summary Update current administrator
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	account, err := h.service.UpdateProfile(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.ProfileResponse{User: account.Info()}, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for the current administrator
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
