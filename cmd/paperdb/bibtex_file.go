package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"scifind-backend/internal/identity"
	"scifind-backend/internal/ingest"
)

var bibEntryHeaderRE = regexp.MustCompile(`^@(\w+)\s*\{\s*([^,]+)\s*,`)
var bibFieldRE = regexp.MustCompile(`^\s*(\w+)\s*=\s*[{"](.*)[}"],?\s*$`)

// loadBibTeXFile does a best-effort line-oriented parse of a .bib file
// into entry_key -> field map, keyed by the entry's citation key. It does
// not handle nested braces or multi-line field values; entries it can't
// parse cleanly are skipped rather than failing the whole file.
func loadBibTeXFile(path string) (map[string]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(map[string]map[string]string)
	var currentKey string
	var currentFields map[string]string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := bibEntryHeaderRE.FindStringSubmatch(line); m != nil {
			if currentKey != "" {
				entries[currentKey] = currentFields
			}
			currentKey = strings.TrimSpace(m[2])
			currentFields = map[string]string{"entry_type": strings.ToLower(m[1])}
			continue
		}
		if currentFields == nil {
			continue
		}
		if strings.TrimSpace(line) == "}" {
			entries[currentKey] = currentFields
			currentKey = ""
			currentFields = nil
			continue
		}
		if m := bibFieldRE.FindStringSubmatch(line); m != nil {
			currentFields[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
		}
	}
	if currentKey != "" {
		entries[currentKey] = currentFields
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning bibtex file: %w", err)
	}
	return entries, nil
}

// applyBibTeXOverrides finds the .bib entry whose title matches r's title
// under the same normalization merge uses for cross-input matching, and
// layers its fields onto r's own inline bibtex.fields (per-record fields
// win on conflict, since they came from the more specific input).
func applyBibTeXOverrides(r *ingest.RawRecord, byKey map[string]map[string]string) {
	if len(byKey) == 0 {
		return
	}
	wantTitle := identity.NormalizeTitleKeyForMerge(mergeTitleOf(*r))
	for _, fields := range byKey {
		title, ok := fields["title"]
		if !ok || identity.NormalizeTitleKeyForMerge(title) != wantTitle {
			continue
		}
		if r.BibTeX == nil {
			r.BibTeX = map[string]string{}
		}
		for k, v := range fields {
			if _, exists := r.BibTeX[k]; !exists {
				r.BibTeX[k] = v
			}
		}
		return
	}
}

func mergeTitleOf(r ingest.RawRecord) string {
	if t, ok := r.BibTeX["title"]; ok && t != "" {
		return t
	}
	return r.Title
}
