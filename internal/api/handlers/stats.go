package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves GET /stats.
type StatsHandler struct {
	deps *Deps
}

func NewStatsHandler(deps *Deps) *StatsHandler {
	return &StatsHandler{deps: deps}
}

func (h *StatsHandler) GlobalStats(c *gin.Context) {
	stats, err := h.deps.Facets.GlobalStats(c.Request.Context(), 10)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ConfigHandler serves GET /config, the runtime config the front-end reads.
type ConfigHandler struct {
	deps *Deps
}

func NewConfigHandler(deps *Deps) *ConfigHandler {
	return &ConfigHandler{deps: deps}
}

func (h *ConfigHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"static_base_url":   h.deps.StaticBaseURL,
		"snapshot_build_id": h.deps.SnapshotBuildID,
	})
}
