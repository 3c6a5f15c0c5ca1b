package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/logger"
	"anoa.com/housecup/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	s, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err,
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
		)
		// Store details stay in the log.
		if code == http.StatusServiceUnavailable {
			c.JSON(code, gin.H{"error": apperror.ErrStorageUnavailable.Error()})
			return
		}
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		c.JSON(code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// ResponseData writes {"data": data}
func ResponseData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"data": data})
}
