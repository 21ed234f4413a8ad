package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"time"
)

// CorsConfig contains CORS configuration
type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCorsConfig returns a read-only API's CORS defaults: GET/POST plus
// HEAD and the OPTIONS preflight (POST covers the MCP JSON-RPC endpoint),
// no credentialed requests since
// there is no auth surface. allowedOrigins is sourced from
// Config.Security.AllowedOrigins by the caller, not hardcoded here.
func DefaultCorsConfig(allowedOrigins []string) CorsConfig {
	return CorsConfig{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			"GET",
			"POST",
			"HEAD",
			"OPTIONS",
		},
		AllowedHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
			"MCP-Protocol-Version",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

// CorsMiddleware returns CORS middleware with configuration
func CorsMiddleware(config CorsConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     config.AllowedMethods,
		AllowHeaders:     config.AllowedHeaders,
		ExposeHeaders:    config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	}

	// Allow all origins in development
	if gin.Mode() == gin.DebugMode {
		corsConfig.AllowAllOrigins = true
	}

	return cors.New(corsConfig)
}