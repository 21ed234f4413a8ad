package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeTemp: %v", err)
	}
	return path
}

func TestExportPaperWritesContentAddressedAssets(t *testing.T) {
	src := t.TempDir()
	exportDir := t.TempDir()

	imgPath := writeTemp(t, src, "fig1.png", "not-a-real-png")
	mdPath := writeTemp(t, src, "source.md", "# Title\n\n![figure one](fig1.png)\n")

	exp := NewExporter(exportDir)
	result, err := exp.ExportPaper(ExportInput{
		PaperID:            "abc123",
		FirstAuthor:        "Smith",
		Year:               "2024",
		Title:              "A Paper",
		SourceMDPath:       mdPath,
		Images:             []string{imgPath},
		AvailableTemplates: []string{"default"},
	})
	if err != nil {
		t.Fatalf("ExportPaper: %v", err)
	}

	if result.Manifest.SourceMD == nil || result.Manifest.SourceMD.Status != StatusAvailable {
		t.Fatalf("expected source_md available, got %+v", result.Manifest.SourceMD)
	}
	if len(result.Manifest.Images) != 1 || result.Manifest.Images[0].Status != StatusAvailable {
		t.Fatalf("expected 1 available image, got %+v", result.Manifest.Images)
	}

	mdData, err := os.ReadFile(filepath.Join(exportDir, filepath.FromSlash(result.Manifest.SourceMD.StaticPath)))
	if err != nil {
		t.Fatalf("reading rewritten markdown: %v", err)
	}
	wantRef := WritePathFor("images", result.Manifest.Images[0].SHA256, "png")
	if !strings.Contains(string(mdData), wantRef) {
		t.Fatalf("rewritten markdown %q does not reference %q", mdData, wantRef)
	}
}

func TestExportPaperMarksMissingAssets(t *testing.T) {
	exportDir := t.TempDir()
	exp := NewExporter(exportDir)

	result, err := exp.ExportPaper(ExportInput{
		PaperID: "missing1",
		PDFPath: "/nonexistent/path.pdf",
	})
	if err != nil {
		t.Fatalf("ExportPaper: %v", err)
	}
	if result.Manifest.PDF == nil || result.Manifest.PDF.Status != StatusMissing {
		t.Fatalf("expected missing pdf, got %+v", result.Manifest.PDF)
	}
}
