package handlers

import (
	"errors"
	"io"

	"studybuddy/middleware"
	"studybuddy/models"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request-scoped logger set by middleware.RequestLogger.
func getLogger(c *gin.Context) *zap.Logger {
	return middleware.LoggerFrom(c)
}

func identity(c *gin.Context) models.Identity {
	return middleware.IdentityFrom(c)
}

// bindJSON decodes the body into v and writes a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			utils.RespondError(c, utils.InvalidInput("request body is required"))
			return false
		}
		getLogger(c).Debug("Invalid request body", zap.Error(err))
		utils.RespondError(c, utils.InvalidInput("invalid request: %s", err.Error()))
		return false
	}
	return true
}
