package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scifind-backend/internal/assets"
	"scifind-backend/internal/ingest"
	"scifind-backend/internal/snapshot"
)

// BuildCmd implements `paperdb snapshot build`.
type BuildCmd struct {
	Input              []string `help:"Input collection JSON file (repeatable)." required:"" placeholder:"PATH"`
	BibTeX             string   `help:"Optional .bib file enriching records whose normalized title matches an entry's title."`
	PDFRoot            []string `help:"Root directory tried in order to resolve relative pdf_path values."`
	MDRoot             []string `help:"Root directory tried in order to resolve relative source_path values."`
	MDTranslatedRoot   []string `help:"Root directory tried in order to resolve relative translation paths."`
	PreviousSnapshotDB string   `help:"Previous snapshot DB, enabling paper_id continuity across builds."`
	OutputDB           string   `help:"Path to write the new snapshot DB to." required:"" placeholder:"PATH"`
	StaticExportDir    string   `help:"Directory to export content-addressed static assets into." required:""`
	StaticBaseURL      string   `help:"Base URL the exported static tree will be served from." env:"PAPER_DB_STATIC_BASE_URL" required:""`
	StaticMode         string   `help:"dev serves the export dir directly, prod proxies it over HTTP." enum:"dev,prod" default:"dev" env:"PAPER_DB_STATIC_MODE"`
}

func (c *BuildCmd) Run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	ctx := context.Background()

	cols := make([]ingest.Collection, 0, len(c.Input))
	for _, path := range c.Input {
		col, err := ingest.LoadCollection(path, ingest.LoadCollectionOptions{})
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		cols = append(cols, col)
	}

	var bibtexFields map[string]map[string]string
	if c.BibTeX != "" {
		var err error
		bibtexFields, err = loadBibTeXFile(c.BibTeX)
		if err != nil {
			return fmt.Errorf("loading bibtex %s: %w", c.BibTeX, err)
		}
	}
	for i := range cols {
		for j := range cols[i].Papers {
			applyBibTeXOverrides(&cols[i].Papers[j], bibtexFields)
		}
	}

	records, diagnostics := ingest.MergeCollections(cols, ingest.DefaultMergeOptions())
	for _, d := range diagnostics {
		logger.Warn("merge diagnostic", slog.String("code", d.Code), slog.String("message", d.Message), slog.String("source", d.Source))
	}

	for i := range records {
		resolvePaths(&records[i], c.PDFRoot, c.MDRoot, c.MDTranslatedRoot)
	}

	var prev *snapshot.Database
	if c.PreviousSnapshotDB != "" {
		var err error
		prev, err = snapshot.OpenReadOnly(c.PreviousSnapshotDB, logger)
		if err != nil {
			return fmt.Errorf("opening previous snapshot: %w", err)
		}
	}

	db, err := snapshot.OpenForBuild(c.OutputDB, logger)
	if err != nil {
		return fmt.Errorf("opening output snapshot: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating output snapshot: %w", err)
	}

	exporter := assets.NewExporter(c.StaticExportDir)
	writer := snapshot.NewWriter(db, exporter, prev, logger)

	buildID := fmt.Sprintf("build-%d", os.Getpid())
	report, err := writer.Build(ctx, buildID, buildID, records)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printBuildReport(report)
	return nil
}

// resolvePaths rewrites a merged record's asset paths to the first root
// (in order) under which the file actually exists, leaving relative or
// already-absolute paths untouched when no root resolves them — the
// exporter marks the asset missing rather than failing the build.
func resolvePaths(rec *ingest.Record, pdfRoots, mdRoots, mdTranslatedRoots []string) {
	rec.PDFPath = resolveUnderRoots(rec.PDFPath, pdfRoots)
	rec.SourcePath = resolveUnderRoots(rec.SourcePath, mdRoots)
	for lang, path := range rec.Translations {
		rec.Translations[lang] = resolveUnderRoots(path, mdTranslatedRoots)
	}
}

func resolveUnderRoots(path string, roots []string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	for _, root := range roots {
		candidate := filepath.Join(root, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}
