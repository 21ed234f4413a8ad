package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"scifind-backend/internal/ingest"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := OpenForBuild(path, logger)
	if err != nil {
		t.Fatalf("OpenForBuild: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestWriterBuildPersistsPapersAndFacets(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	w := NewWriter(db, nil, nil, logger)

	records := []ingest.Record{
		{
			Title:              "Deep Learning for Everyone",
			Authors:            []string{"Ada Lovelace", "Alan Turing"},
			Year:               "2023",
			Month:              "05",
			Venue:              "NeurIPS",
			DOI:                "10.1234/abcd",
			Keywords:           []string{"ml", "deep learning"},
			AvailableTemplates: []string{"default"},
			Summaries:          map[string]string{"default": "A summary."},
		},
		{
			Title:              "Graph Theory Basics",
			Authors:            []string{"Ada Lovelace"},
			Year:               "2022",
			Venue:              "ICML",
			AvailableTemplates: []string{"default"},
			Summaries:          map[string]string{"default": "Another summary."},
		},
	}

	report, err := w.Build(context.Background(), "build-1", "build-1", records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.PapersWritten != 2 {
		t.Fatalf("PapersWritten = %d, want 2", report.PapersWritten)
	}

	var paperCount int64
	db.Table("papers").Count(&paperCount)
	if paperCount != 2 {
		t.Fatalf("papers table has %d rows, want 2", paperCount)
	}

	var aliasCount int64
	db.Table("paper_key_aliases").Count(&aliasCount)
	if aliasCount != 2 {
		t.Fatalf("paper_key_aliases has %d rows, want 2", aliasCount)
	}

	var authorFacetCount int64
	db.Model(&FacetValue{}).Where("kind = ?", FacetAuthor).Count(&authorFacetCount)
	if authorFacetCount != 2 {
		t.Fatalf("author facets = %d, want 2 (ada lovelace, alan turing)", authorFacetCount)
	}

	var ftsCount int64
	db.Raw("SELECT count(*) FROM papers_fts").Scan(&ftsCount)
	if ftsCount != 2 {
		t.Fatalf("papers_fts has %d rows, want 2", ftsCount)
	}
}

func TestWriterBuildIndexesSourceAndTranslatedMarkdown(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	w := NewWriter(db, nil, nil, logger)

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.md")
	if err := os.WriteFile(sourcePath, []byte("# Attention\n\nThis paper introduces deep learning for retrieval."), 0o644); err != nil {
		t.Fatalf("writing source md: %v", err)
	}
	translatedPath := filepath.Join(dir, "source.ja.md")
	if err := os.WriteFile(translatedPath, []byte("# 注意機構\n\n深層学習について述べる。"), 0o644); err != nil {
		t.Fatalf("writing translated md: %v", err)
	}

	records := []ingest.Record{
		{
			Title:        "Attention Mechanisms",
			Authors:      []string{"Ada Lovelace"},
			Year:         "2023",
			Venue:        "NeurIPS",
			SourcePath:   sourcePath,
			Translations: map[string]string{"ja": translatedPath},
		},
	}

	if _, err := w.Build(context.Background(), "build-1", "build-1", records); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var sourceText, translatedText string
	if err := db.Raw("SELECT source_text, translated_text FROM papers_fts").Row().Scan(&sourceText, &translatedText); err != nil {
		t.Fatalf("scanning papers_fts: %v", err)
	}
	if sourceText == "" {
		t.Fatalf("expected source_text to be populated from SourcePath, got empty")
	}
	if translatedText == "" {
		t.Fatalf("expected translated_text to be populated from Translations, got empty")
	}
}

func TestWriterBuildDOIContinuityAcrossRebuilds(t *testing.T) {
	firstDB := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	w1 := NewWriter(firstDB, nil, nil, logger)

	rec := ingest.Record{
		Title:   "Continuity Paper",
		Authors: []string{"Grace Hopper"},
		Year:    "2020",
		Venue:   "PLDI",
	}
	report1, err := w1.Build(context.Background(), "build-1", "build-1", []ingest.Record{rec})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if report1.PapersWritten != 1 {
		t.Fatalf("expected 1 paper written")
	}

	var firstPaper Paper
	if err := firstDB.First(&firstPaper).Error; err != nil {
		t.Fatalf("reading first paper: %v", err)
	}

	secondDB := newTestDB(t)
	w2 := NewWriter(secondDB, nil, firstDB, logger)

	recWithDOI := rec
	recWithDOI.DOI = "10.9999/continuity"
	_, err = w2.Build(context.Background(), "build-2", "build-2", []ingest.Record{recWithDOI})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	var secondPaper Paper
	if err := secondDB.First(&secondPaper).Error; err != nil {
		t.Fatalf("reading second paper: %v", err)
	}
	if secondPaper.PaperID != firstPaper.PaperID {
		t.Fatalf("paper_id changed across rebuild: %s -> %s", firstPaper.PaperID, secondPaper.PaperID)
	}
	if secondPaper.PaperKeyType != "doi" {
		t.Fatalf("paper_key_type = %s, want doi (strongest key now available)", secondPaper.PaperKeyType)
	}
}
