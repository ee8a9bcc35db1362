package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/middlewares"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

// --- helpers ---

func userIDFromCtx(c *gin.Context) (string, bool) {
	id := c.GetString(middlewares.CtxUserID)
	return id, id != ""
}

// respondError maps service errors to status codes. notFound is the
// message used for models.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("requestID", c.GetString(middlewares.CtxRequestID)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindError reports a failed ShouldBindJSON. Broken binding rules get their
// own message; malformed bodies get fallback.
func bindError(c *gin.Context, err error, fallback string) {
	if msg, ok := utils.ValidationMessage(err); ok {
		fallback = msg
	}
	badRequest(c, fallback)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
