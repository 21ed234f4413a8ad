package ingest

import (
	"sort"
	"strings"

	"scifind-backend/internal/identity"
)

// MergeOptions configures cross-input merging.
type MergeOptions struct {
	// SimilarityThreshold is the minimum title-similarity ratio for two
	// records to be merged into one; spec fixes this at 0.95.
	SimilarityThreshold float64
}

// DefaultMergeOptions returns the spec-mandated merge threshold.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{SimilarityThreshold: identity.MergeSimilarityThreshold}
}

// mergeTitle returns the field used as the merge key: bibtex.fields.title
// when present, else the record's own title.
func mergeTitle(r RawRecord) string {
	if t, ok := r.BibTeX["title"]; ok && t != "" {
		return t
	}
	return r.Title
}

// MergeCollections flattens all input collections (in stable order) and
// merges records whose normalized titles meet the similarity threshold.
// Records are first grouped across collections, so a title appearing twice
// within a single collection is also merged. On merge, summary templates
// and translations union; scalar fields prefer the first input encountered,
// which is deterministic as long as inputs are listed in a stable order.
func MergeCollections(cols []Collection, opts MergeOptions) ([]Record, []Diagnostic) {
	var all []RawRecord
	for _, c := range cols {
		all = append(all, c.Papers...)
	}

	type group struct {
		key     string // normalized title of the first (anchor) record
		members []RawRecord
	}
	var groups []*group
	var diags []Diagnostic

	for _, rec := range all {
		key := identity.NormalizeTitleKeyForMerge(mergeTitle(rec))
		merged := false
		for _, g := range groups {
			if identity.TitleSimilarity(key, g.key) >= opts.SimilarityThreshold {
				g.members = append(g.members, rec)
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, &group{key: key, members: []RawRecord{rec}})
		}
	}

	records := make([]Record, 0, len(groups))
	for _, g := range groups {
		rec, skip := mergeGroup(g.members)
		if skip != nil {
			diags = append(diags, *skip)
			continue
		}
		records = append(records, rec)
	}
	return records, diags
}

// mergeGroup combines one group of matched raw records into a single
// normalized Record. Members are assumed already in stable input order.
func mergeGroup(members []RawRecord) (Record, *Diagnostic) {
	if len(members) == 0 {
		return Record{}, &Diagnostic{Code: "empty_group", Message: "merge group had no members"}
	}
	anchor := members[0]

	rec := Record{
		Title:          anchor.Title,
		Authors:        anchor.Authors,
		Year:           identity.ExtractYear(anchor.PublicationDate),
		Month:          extractMonth(anchor.PublicationDate),
		Venue:          anchor.PublicationVenue,
		DOI:            anchor.DOI,
		Keywords:       append([]string{}, anchor.Keywords...),
		Institutions:   append([]string{}, anchor.Institutions...),
		Tags:           append([]string{}, anchor.Tags...),
		OutputLanguage: anchor.OutputLanguage,
		Provider:       anchor.Provider,
		Model:          anchor.Model,
		PromptTemplate: anchor.PromptTemplate,
		SourcePath:     anchor.SourcePath,
		PDFPath:        anchor.PDFPath,
		Translations:   map[string]string{},
		Images:         append([]string{}, anchor.Images...),
		BibTeXFields:   map[string]string{},
		Summaries:      map[string]string{},
	}
	for k, v := range anchor.BibTeX {
		rec.BibTeXFields[k] = v
	}
	for lang, path := range anchor.Translations {
		rec.Translations[lang] = path
	}
	if anchor.Summary != "" {
		rec.Summaries[anchor.TemplateTag] = anchor.Summary
	} else if anchor.Abstract != "" {
		rec.Summaries[anchor.TemplateTag] = anchor.Abstract
	}

	for _, m := range members[1:] {
		if m.Summary != "" {
			if _, exists := rec.Summaries[m.TemplateTag]; !exists {
				rec.Summaries[m.TemplateTag] = m.Summary
			}
		}
		for lang, path := range m.Translations {
			if _, exists := rec.Translations[lang]; !exists {
				rec.Translations[lang] = path
			}
		}
		for _, img := range m.Images {
			if !contains(rec.Images, img) {
				rec.Images = append(rec.Images, img)
			}
		}
		for k, v := range m.BibTeX {
			if _, exists := rec.BibTeXFields[k]; !exists {
				rec.BibTeXFields[k] = v
			}
		}
	}

	rec.AvailableTemplates = templateKeys(rec.Summaries)
	enrichWithBibTeX(&rec)
	return rec, nil
}

// enrichWithBibTeX applies the per-field BibTeX override rule: BibTeX
// values win for year, month, venue, and doi when present.
func enrichWithBibTeX(rec *Record) {
	if y, ok := rec.BibTeXFields["year"]; ok && y != "" {
		rec.Year = y
	}
	if m, ok := rec.BibTeXFields["month"]; ok && m != "" {
		rec.Month = m
	}
	if v, ok := rec.BibTeXFields["venue"]; ok && v != "" {
		rec.Venue = v
	} else if j, ok := rec.BibTeXFields["journal"]; ok && j != "" && rec.Venue == "" {
		rec.Venue = j
	}
	if d, ok := rec.BibTeXFields["doi"]; ok && d != "" {
		rec.DOI = d
	}
	if k, ok := rec.BibTeXFields["_key"]; ok {
		rec.BibTeXKey = k
	}
}

var monthNames = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// extractMonth derives a 01-12 month code from a free-form publication
// date, falling back to an ISO-8601 "YYYY-MM" prefix, then "Unknown".
func extractMonth(date string) string {
	lower := strings.ToLower(date)
	for name, num := range monthNames {
		if strings.Contains(lower, name) {
			return num
		}
	}
	if len(date) >= 7 && date[4] == '-' {
		if m := date[5:7]; m >= "01" && m <= "12" {
			return m
		}
	}
	return "Unknown"
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func templateKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
