// Package mcpserver exposes the snapshot's read surface to MCP clients:
// the same searches and paper detail the Read API serves, as tools and
// resources over Streamable HTTP instead of REST.
package mcpserver

import (
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"

	"scifind-backend/internal/assetfetch"
	"scifind-backend/internal/facets"
	"scifind-backend/internal/search"
)

// Options configures a Server beyond the snapshot DB handle.
type Options struct {
	Name              string
	Version           string
	AllowedOrigins    []string
	StaticBaseURL     string
	DefaultTruncation int
	Fetcher           *assetfetch.Fetcher
}

// Server wraps a mark3labs/mcp-go MCPServer with the tool and resource
// handlers bound to a read-only snapshot, plus the HTTP-layer origin and
// protocol-version checks the Streamable HTTP transport needs.
type Server struct {
	mcp            *server.MCPServer
	http           *server.StreamableHTTPServer
	allowedOrigins map[string]bool
	deps           *deps
}

type deps struct {
	db                *gorm.DB
	search            *search.Engine
	facets            *facets.Service
	fetcher           *assetfetch.Fetcher
	staticBaseURL     string
	defaultTruncation int
	logger            *slog.Logger
}

const defaultTruncationFallback = 4000

// New builds a Server bound to db. The caller mounts Handler() at /mcp.
func New(db *gorm.DB, opts Options, logger *slog.Logger) *Server {
	name := opts.Name
	if name == "" {
		name = "paperdb"
	}
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}
	truncation := opts.DefaultTruncation
	if truncation <= 0 {
		truncation = defaultTruncationFallback
	}

	d := &deps{
		db:                db,
		search:            search.NewEngine(db),
		facets:            facets.NewService(db),
		fetcher:           opts.Fetcher,
		staticBaseURL:     opts.StaticBaseURL,
		defaultTruncation: truncation,
		logger:            logger,
	}

	mcpServer := server.NewMCPServer(name, version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s := &Server{mcp: mcpServer, deps: d}
	s.registerTools()
	s.registerResources()

	origins := make(map[string]bool, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = true
	}
	s.allowedOrigins = origins

	s.http = server.NewStreamableHTTPServer(mcpServer, server.WithStateLess(true))
	return s
}

// supportedProtocolVersions are the MCP protocol revisions this server
// understands. A request naming anything else is rejected with 400.
var supportedProtocolVersions = map[string]bool{
	"2025-03-26": true,
	"2025-06-18": true,
}

// Handler returns the http.Handler to mount at /mcp: GET is rejected (no
// SSE stream in stateless mode), Origin is checked against the allowlist
// when one is configured, and MCP-Protocol-Version is validated when
// present before delegating to the Streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" && len(s.allowedOrigins) > 0 && !s.allowedOrigins[origin] {
			writeJSONRPCError(w, http.StatusForbidden, "origin not allowed")
			return
		}

		if v := r.Header.Get("MCP-Protocol-Version"); v != "" && !supportedProtocolVersions[v] {
			writeJSONRPCError(w, http.StatusBadRequest, "unsupported MCP-Protocol-Version: "+v)
			return
		}

		s.http.ServeHTTP(w, r)
	})
}

func writeJSONRPCError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32600,"message":"` + message + `"},"id":null}`))
}
