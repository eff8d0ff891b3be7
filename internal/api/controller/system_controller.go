package controller

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/response"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	rootMessage   = "IISC PROJECT 2025"
	healthTimeout = 2 * time.Second
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemController serves the root banner and the health probe.
type SystemController struct {
	store Pinger
}

// NewSystemController creates a new SystemController.
func NewSystemController(store Pinger) *SystemController {
	return &SystemController{store: store}
}

func (sc *SystemController) Root(c *gin.Context) {
	response.OK(c, models.MessageResponse{Message: rootMessage})
}

// Health answers 503 while the store is unreachable.
func (sc *SystemController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := sc.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
