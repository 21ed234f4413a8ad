package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"scifind-backend/internal/api"
	"scifind-backend/internal/assetfetch"
	"scifind-backend/internal/config"
	"scifind-backend/internal/mcpserver"
	"scifind-backend/internal/snapshot"
)

// latestBuildID reads the stamped snapshot_build row, the cache-busting
// token build-dependent static URLs append.
func latestBuildID(db *snapshot.Database) string {
	var build snapshot.SnapshotBuild
	if err := db.DB.Order("created_at DESC").First(&build).Error; err != nil {
		return ""
	}
	return build.SnapshotBuildID
}

// ServeCmd implements `paperdb api serve`.
type ServeCmd struct {
	SnapshotDB    string   `help:"Snapshot DB to serve reads from." required:"" placeholder:"PATH"`
	Host          string   `help:"Listen host. Overrides config/env when set."`
	Port          int      `help:"Listen port. Overrides config/env when set."`
	StaticBaseURL string   `help:"Base URL of the static asset tree. Overrides config/env when set." env:"PAPER_DB_STATIC_BASE_URL"`
	AllowedOrigin []string `help:"Allowed CORS/MCP origin (repeatable). Overrides config/env when set." env:"PAPER_DB_ALLOWED_ORIGINS"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.StaticBaseURL != "" {
		cfg.Static.BaseURL = c.StaticBaseURL
	}
	if len(c.AllowedOrigin) > 0 {
		cfg.Security.AllowedOrigins = c.AllowedOrigin
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	timeouts, err := cfg.GetTimeoutConfig()
	if err != nil {
		return fmt.Errorf("parsing timeouts: %w", err)
	}

	db, err := snapshot.OpenReadOnly(c.SnapshotDB, logger)
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", c.SnapshotDB, err)
	}

	fetcher := assetfetch.New(assetfetch.Config{Timeout: timeouts.AssetFetch}, logger)
	buildID := latestBuildID(db)

	router := api.NewRouter(db.DB, api.Options{
		AllowedOrigins:  cfg.Security.AllowedOrigins,
		StaticBaseURL:   cfg.Static.BaseURL,
		ExportDir:       cfg.Static.ExportDir,
		StaticMode:      cfg.Static.Mode,
		SnapshotBuildID: buildID,
		Fetcher:         fetcher,
	}, logger)

	if cfg.MCP.Enabled {
		mcpSrv := mcpserver.New(db.DB, mcpserver.Options{
			AllowedOrigins:    cfg.Security.AllowedOrigins,
			StaticBaseURL:     cfg.Static.BaseURL,
			DefaultTruncation: cfg.MCP.DefaultTruncation,
			Fetcher:           fetcher,
		}, logger)
		router.Any(cfg.MCP.Path, gin.WrapH(mcpSrv.Handler()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    timeouts.Server.Read,
		WriteTimeout:   timeouts.Server.Write,
		IdleTimeout:    timeouts.Server.Idle,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("starting paperdb api server", "addr", addr, "mcp_enabled", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down paperdb api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
	}

	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}
