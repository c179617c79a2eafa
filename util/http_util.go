// util/http_util.go
package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dg_errors "github.com/securenet/dyngroups/errors"
)

func RespondWithError(c *gin.Context, log *zap.Logger, code int, message string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	}
	if code >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Warn(message, fields...)
	}

	body := gin.H{"error": message}
	if err != nil && code < http.StatusInternalServerError {
		body["details"] = err.Error()
	}
	c.JSON(code, body)
}

// StatusForError maps domain errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, dg_errors.ErrRuleNotFound),
		errors.Is(err, dg_errors.ErrRuleSetNotFound),
		errors.Is(err, dg_errors.ErrUserNotFound),
		errors.Is(err, dg_errors.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, dg_errors.ErrInvalidRuleData),
		errors.Is(err, dg_errors.ErrInvalidRuleSetData),
		errors.Is(err, dg_errors.ErrInvalidUserData),
		errors.Is(err, dg_errors.ErrInvalidGroupData),
		errors.Is(err, dg_errors.ErrInvalidPagination),
		errors.Is(err, dg_errors.ErrInvalidAuditQuery):
		return http.StatusBadRequest
	case errors.Is(err, dg_errors.ErrRuleConflict),
		errors.Is(err, dg_errors.ErrUserConflict),
		errors.Is(err, dg_errors.ErrGroupConflict),
		errors.Is(err, dg_errors.ErrReconcileInProgress):
		return http.StatusConflict
	case errors.Is(err, dg_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func GetUserIDFromContext(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
