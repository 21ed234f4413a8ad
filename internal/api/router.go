package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"scifind-backend/internal/api/handlers"
	"scifind-backend/internal/api/middleware"
	"scifind-backend/internal/assetfetch"
	"scifind-backend/internal/facets"
	"scifind-backend/internal/search"
)

// Options configures NewRouter beyond the snapshot DB handle itself.
type Options struct {
	AllowedOrigins  []string
	StaticBaseURL   string
	ExportDir       string
	StaticMode      string
	SnapshotBuildID string
	Fetcher         *assetfetch.Fetcher
}

// NewRouter builds the versioned read API: search, paper detail/bibtex/
// summary, facet browse/stats and the front-end config endpoint, plus
// health checks at the root.
func NewRouter(db *gorm.DB, opts Options, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorsMiddleware(middleware.DefaultCorsConfig(opts.AllowedOrigins)))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(gin.Recovery())

	deps := &handlers.Deps{
		DB:              db,
		Search:          search.NewEngine(db),
		Facets:          facets.NewService(db),
		Fetcher:         opts.Fetcher,
		Logger:          logger,
		StaticBaseURL:   opts.StaticBaseURL,
		ExportDir:       opts.ExportDir,
		StaticMode:      opts.StaticMode,
		SnapshotBuildID: opts.SnapshotBuildID,
	}

	health := handlers.NewHealthHandler(deps)
	router.GET("/health", health.Readiness)
	router.GET("/ping", health.Liveness)

	v1 := router.Group("/api/v1")
	{
		searchHandler := handlers.NewSearchHandler(deps)
		v1.GET("/search", searchHandler.Search)

		paperHandler := handlers.NewPaperHandler(deps)
		v1.GET("/papers/:paper_id", paperHandler.GetPaper)
		v1.GET("/papers/:paper_id/bibtex", paperHandler.GetBibTeX)
		v1.GET("/papers/:paper_id/summary", paperHandler.GetSummary)

		facetHandler := handlers.NewFacetHandler(deps)
		v1.GET("/facets/:kind", facetHandler.ListFacet)
		v1.GET("/facets/:kind/:id/papers", facetHandler.PapersByID)
		v1.GET("/facets/:kind/by-value/:value/papers", facetHandler.PapersByValue)
		v1.GET("/facets/:kind/by-value/:value/stats", facetHandler.StatsByValue)

		statsHandler := handlers.NewStatsHandler(deps)
		v1.GET("/stats", statsHandler.GlobalStats)

		configHandler := handlers.NewConfigHandler(deps)
		v1.GET("/config", configHandler.Config)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "paperdb",
			"docs":    "/api/v1",
			"health":  "/health",
		})
	})

	return router
}
