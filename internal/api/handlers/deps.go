package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"scifind-backend/internal/assetfetch"
	"scifind-backend/internal/facets"
	"scifind-backend/internal/search"
)

// Deps is the shared, read-only dependency set every handler is built
// from: one snapshot DB connection, the query/facet services layered on
// top of it, a fetcher for proxying static content, and the
// configuration values handlers need to build asset URLs.
type Deps struct {
	DB              *gorm.DB
	Search          *search.Engine
	Facets          *facets.Service
	Fetcher         *assetfetch.Fetcher
	Logger          *slog.Logger
	StaticBaseURL   string
	ExportDir       string
	StaticMode      string
	SnapshotBuildID string
}
