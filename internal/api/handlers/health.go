package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports whether the read-only snapshot connection is
// reachable. There is no external dependency beyond the snapshot DB.
type HealthHandler struct {
	deps *Deps
}

func NewHealthHandler(deps *Deps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Liveness is a process-level check with no DB access.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()})
}

// Readiness pings the snapshot database.
func (h *HealthHandler) Readiness(c *gin.Context) {
	sqlDB, err := h.deps.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"snapshot_build_id": h.deps.SnapshotBuildID,
		"timestamp":         time.Now().UTC(),
	})
}
