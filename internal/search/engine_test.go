package search

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"scifind-backend/internal/ingest"
	"scifind-backend/internal/snapshot"
)

func newSearchTestDB(t *testing.T) *snapshot.Database {
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
	records := []ingest.Record{
		{
			Title:   "Attention Is All You Need",
			Authors: []string{"Ashish Vaswani"},
			Year:    "2017",
			Venue:   "NeurIPS",
		},
		{
			Title:   "Graph Theory Basics",
			Authors: []string{"Ada Lovelace"},
			Year:    "2022",
			Venue:   "ICML",
		},
	}
	if _, err := w.Build(context.Background(), "build-1", "build-1", records); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return db
}

func TestEngineSearchMatchesFTSQuery(t *testing.T) {
	db := newSearchTestDB(t)
	engine := NewEngine(db.DB)

	resp, err := engine.Search(context.Background(), Request{Query: "attention", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}
	if resp.Items[0].Title != "Attention Is All You Need" {
		t.Fatalf("unexpected hit: %+v", resp.Items[0])
	}
}

func TestEngineSearchFallsBackToTrigramOnZeroHits(t *testing.T) {
	db := newSearchTestDB(t)
	engine := NewEngine(db.DB)

	// "attenton" is a typo with no FTS5 token match but a close trigram
	// neighbor in "Attention Is All You Need".
	resp, err := engine.Search(context.Background(), Request{Query: "attenton", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total == 0 {
		t.Fatalf("expected trigram fallback to find a near match, got zero hits")
	}
	found := false
	for _, item := range resp.Items {
		if item.Title == "Attention Is All You Need" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fallback to surface the near-match title, got %+v", resp.Items)
	}
}

func TestEngineSearchFieldFilterDoesNotTriggerFallback(t *testing.T) {
	db := newSearchTestDB(t)
	engine := NewEngine(db.DB)

	resp, err := engine.Search(context.Background(), Request{Query: "title:nonexistentterm", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total != 0 {
		t.Fatalf("Total = %d, want 0 (field filter queries must not fall back to trigram)", resp.Total)
	}
}
