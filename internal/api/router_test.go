package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scifind-backend/internal/ingest"
	"scifind-backend/internal/snapshot"
)

func seedSnapshotDB(t *testing.T) *snapshot.Database {
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

func TestRouterSearchReturnsDecoratedItems(t *testing.T) {
	db := seedSnapshotDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	router := NewRouter(db.DB, Options{StaticBaseURL: "https://static.example.org", SnapshotBuildID: "build-1"}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=attention", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Total int `json:"total"`
		Items []struct {
			PaperID     string `json:"paper_id"`
			ManifestURL string `json:"manifest_url"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("total = %d, want 1", body.Total)
	}
	if body.Items[0].ManifestURL == "" {
		t.Fatalf("expected manifest_url to be set")
	}
}

func TestRouterHealthReturnsOK(t *testing.T) {
	db := seedSnapshotDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	router := NewRouter(db.DB, Options{StaticBaseURL: "https://static.example.org"}, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
