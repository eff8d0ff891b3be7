package response

import (
	"ctchen222/todo-backend/internal/apperr"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgInternal   = "Internal server error"
	msgBadRequest = "Invalid request body"
)

// Error is the body of every failed request.
type Error struct {
	Detail string `json:"detail"`
}

// ErrorResponse writes a {"detail": message} body with the given status.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Error{Detail: message})
}

// BindError reports a request body that failed to decode or validate.
func BindError(c *gin.Context, err error) {
	slog.DebugContext(c.Request.Context(), "Request body rejected", "http.path", c.FullPath(), "error", err)
	ErrorResponse(c, http.StatusBadRequest, msgBadRequest)
}

// StatusOf maps an error's kind to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status for its kind. Upstream failures are
// logged and reported with a generic message.
func FromError(c *gin.Context, err error) {
	code := StatusOf(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "http.path", c.FullPath(), "error", err)
		ErrorResponse(c, code, msgInternal)
		return
	}

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	ErrorResponse(c, code, message)
}
