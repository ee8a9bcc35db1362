package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "userID"
	CtxRole   = "role"
	CtxClaims = "claims"
	CtxToken  = "token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// AuthMiddleware rejects requests without a valid, unrevoked token. With
// allowQuery the token may also come from the access_token query parameter
// (browsers cannot set headers on websocket upgrades).
func AuthMiddleware(auth Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" && allowQuery {
			token = c.Query("access_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, models.ErrUnauthorized) {
				logger.Error("authenticate token", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, string(claims.Role))
		c.Set(CtxClaims, claims)
		c.Set(CtxToken, token)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != string(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
