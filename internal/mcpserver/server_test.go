package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scifind-backend/internal/assetfetch"
	"scifind-backend/internal/ingest"
	"scifind-backend/internal/search"
	"scifind-backend/internal/snapshot"
)

func seedDB(t *testing.T) *snapshot.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := snapshot.OpenForBuild(path, logger)
	if err != nil {
		t.Fatalf("OpenForBuild: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	w := snapshot.NewWriter(db, nil, nil, logger)
	_, err = w.Build(context.Background(), "build-1", "build-1", []ingest.Record{
		{
			Title:              "Attention Is Relational",
			Authors:            []string{"Ada Lovelace"},
			Year:               "2023",
			Venue:              "NeurIPS",
			AvailableTemplates: []string{"default"},
			Summaries:          map[string]string{"default": "A short summary about attention."},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return db
}

func TestHandlerRejectsGET(t *testing.T) {
	db := seedDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := New(db.DB, Options{Fetcher: assetfetch.New(assetfetch.Config{}, logger)}, logger)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandlerRejectsDisallowedOrigin(t *testing.T) {
	db := seedDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := New(db.DB, Options{AllowedOrigins: []string{"https://trusted.example.org"}, Fetcher: assetfetch.New(assetfetch.Config{}, logger)}, logger)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://evil.example.org")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerRejectsUnsupportedProtocolVersion(t *testing.T) {
	db := seedDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := New(db.DB, Options{Fetcher: assetfetch.New(assetfetch.Config{}, logger)}, logger)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set("MCP-Protocol-Version", "1999-01-01")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGetPaperMetadataNotFound(t *testing.T) {
	db := seedDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := New(db.DB, Options{Fetcher: assetfetch.New(assetfetch.Config{}, logger)}, logger)

	_, err := s.loadPaperMeta("does-not-exist")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestTruncateAppendsMarkerOnOverflow(t *testing.T) {
	text, truncated := truncate("0123456789", 5)
	if !truncated {
		t.Fatal("expected truncated = true")
	}
	if !strings.HasPrefix(text, "01234") || !strings.Contains(text, "[truncated]") {
		t.Fatalf("unexpected truncated text: %q", text)
	}

	same, truncated := truncate("short", 100)
	if truncated || same != "short" {
		t.Fatalf("expected no truncation, got %q truncated=%v", same, truncated)
	}
}

func TestSearchHitsFromEncodesItems(t *testing.T) {
	hits := searchHitsFrom(&search.Response{})
	if len(hits) != 0 {
		t.Fatalf("expected empty slice for nil response items")
	}
	body, err := json.Marshal(wrapHits(hits))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"total":0`) {
		t.Fatalf("unexpected payload: %s", body)
	}
}
