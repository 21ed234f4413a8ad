package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"scifind-backend/internal/ingest"
)

func TestResolveUnderRootsFindsFirstMatchingRoot(t *testing.T) {
	dir := t.TempDir()
	rootA := filepath.Join(dir, "a")
	rootB := filepath.Join(dir, "b")
	require.NoError(t, os.MkdirAll(rootA, 0o755))
	require.NoError(t, os.MkdirAll(rootB, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "paper.pdf"), []byte("x"), 0o644))

	got := resolveUnderRoots("paper.pdf", []string{rootA, rootB})
	require.Equal(t, filepath.Join(rootB, "paper.pdf"), got)
}

func TestResolveUnderRootsLeavesPathUnchangedWhenNoRootMatches(t *testing.T) {
	got := resolveUnderRoots("missing.pdf", []string{t.TempDir()})
	require.Equal(t, "missing.pdf", got)
}

func TestResolveUnderRootsLeavesAbsolutePathUnchanged(t *testing.T) {
	abs := filepath.Join(string(os.PathSeparator), "already", "absolute.pdf")
	got := resolveUnderRoots(abs, []string{t.TempDir()})
	require.Equal(t, abs, got)
}

func TestResolveUnderRootsLeavesEmptyPathUnchanged(t *testing.T) {
	require.Equal(t, "", resolveUnderRoots("", []string{t.TempDir()}))
}

func TestResolvePathsRewritesAllThreeAssetKinds(t *testing.T) {
	dir := t.TempDir()
	pdfRoot := filepath.Join(dir, "pdf")
	mdRoot := filepath.Join(dir, "md")
	trRoot := filepath.Join(dir, "tr")
	require.NoError(t, os.MkdirAll(pdfRoot, 0o755))
	require.NoError(t, os.MkdirAll(mdRoot, 0o755))
	require.NoError(t, os.MkdirAll(trRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pdfRoot, "p.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mdRoot, "p.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(trRoot, "p.ja.md"), []byte("x"), 0o644))

	rec := &ingest.Record{
		PDFPath:      "p.pdf",
		SourcePath:   "p.md",
		Translations: map[string]string{"ja": "p.ja.md"},
	}
	resolvePaths(rec, []string{pdfRoot}, []string{mdRoot}, []string{trRoot})

	require.Equal(t, filepath.Join(pdfRoot, "p.pdf"), rec.PDFPath)
	require.Equal(t, filepath.Join(mdRoot, "p.md"), rec.SourcePath)
	require.Equal(t, filepath.Join(trRoot, "p.ja.md"), rec.Translations["ja"])
}
