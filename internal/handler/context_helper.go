package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/middleware"
	"github.com/noah-isme/screen-admin-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

func actorName(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.Username
	}
	return ""
}
