package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/VitaminP8/postsync/internal/gateway"
	"github.com/VitaminP8/postsync/internal/post"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/internal/user"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, user.ErrInvalidInput), errors.Is(err, post.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, post.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrUserExists), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func renderError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"message": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
