package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"scifind-backend/internal/ingest"
)

func writeBibFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refs.bib")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadBibTeXFileParsesEntries(t *testing.T) {
	path := writeBibFile(t, `@article{smith2020,
  title = {Attention and Memory},
  year = {2020},
  venue = {NeurIPS},
}

@inproceedings{jones2021,
  title = {Sparse Retrieval},
  year = {2021},
}
`)

	entries, err := loadBibTeXFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Attention and Memory", entries["smith2020"]["title"])
	require.Equal(t, "article", entries["smith2020"]["entry_type"])
	require.Equal(t, "NeurIPS", entries["smith2020"]["venue"])
	require.Equal(t, "Sparse Retrieval", entries["jones2021"]["title"])
}

func TestLoadBibTeXFileSkipsUnparseableLines(t *testing.T) {
	path := writeBibFile(t, `@article{smith2020,
  title = {Attention and Memory},
  this line has no equals sign
  year = {2020},
}
`)

	entries, err := loadBibTeXFile(path)
	require.NoError(t, err)
	require.Equal(t, "Attention and Memory", entries["smith2020"]["title"])
	require.Equal(t, "2020", entries["smith2020"]["year"])
}

func TestApplyBibTeXOverridesMatchesByNormalizedTitle(t *testing.T) {
	byKey := map[string]map[string]string{
		"smith2020": {
			"title": "Attention and Memory",
			"venue": "NeurIPS",
		},
	}
	r := &ingest.RawRecord{Title: "attention   and memory"}
	applyBibTeXOverrides(r, byKey)

	require.Equal(t, "NeurIPS", r.BibTeX["venue"])
}

func TestApplyBibTeXOverridesDoesNotOverwriteExistingFields(t *testing.T) {
	byKey := map[string]map[string]string{
		"smith2020": {
			"title": "Attention and Memory",
			"venue": "NeurIPS",
		},
	}
	r := &ingest.RawRecord{
		Title:  "Attention and Memory",
		BibTeX: map[string]string{"venue": "already set"},
	}
	applyBibTeXOverrides(r, byKey)

	require.Equal(t, "already set", r.BibTeX["venue"])
}

func TestApplyBibTeXOverridesNoOpWhenNoMatch(t *testing.T) {
	byKey := map[string]map[string]string{
		"smith2020": {"title": "Some Other Paper"},
	}
	r := &ingest.RawRecord{Title: "Attention and Memory"}
	applyBibTeXOverrides(r, byKey)

	require.Nil(t, r.BibTeX)
}
