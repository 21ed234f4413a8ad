package ingest

import "testing"

func TestMergeCollectionsUnionsAcrossInputs(t *testing.T) {
	colA := Collection{TemplateTag: "deep_read", Papers: []RawRecord{
		{Title: "Deep Learning for Natural Language Processing", Authors: []string{"Ada Lovelace"}, Summary: "summary A", TemplateTag: "deep_read", Source: "a.json"},
	}}
	colB := Collection{TemplateTag: "quick_read", Papers: []RawRecord{
		{Title: "Deep Learning for Natural Language Processing", Authors: []string{"Ada Lovelace"}, Summary: "summary B", TemplateTag: "quick_read", Source: "b.json"},
	}}

	records, diags := MergeCollections([]Collection{colA, colB}, DefaultMergeOptions())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(records))
	}
	rec := records[0]
	if len(rec.Summaries) != 2 {
		t.Fatalf("expected summaries from both inputs, got %+v", rec.Summaries)
	}
	if rec.Summaries["deep_read"] != "summary A" || rec.Summaries["quick_read"] != "summary B" {
		t.Fatalf("unexpected summaries: %+v", rec.Summaries)
	}
}

func TestMergeCollectionsKeepsDistinctTitlesSeparate(t *testing.T) {
	col := Collection{TemplateTag: "deep_read", Papers: []RawRecord{
		{Title: "Attention Is All You Need", Authors: []string{"A"}, TemplateTag: "deep_read"},
		{Title: "A Completely Unrelated Biology Paper", Authors: []string{"B"}, TemplateTag: "deep_read"},
	}}
	records, _ := MergeCollections([]Collection{col}, DefaultMergeOptions())
	if len(records) != 2 {
		t.Fatalf("expected 2 distinct records, got %d", len(records))
	}
}

func TestBibTeXOverridesYearVenueDOI(t *testing.T) {
	col := Collection{TemplateTag: "deep_read", Papers: []RawRecord{
		{
			Title:            "Some Paper",
			PublicationDate:  "2019",
			PublicationVenue: "extracted venue",
			BibTeX: map[string]string{
				"year":  "2020",
				"venue": "ICML",
				"doi":   "10.1000/xyz",
			},
		},
	}}
	records, _ := MergeCollections([]Collection{col}, DefaultMergeOptions())
	rec := records[0]
	if rec.Year != "2020" {
		t.Errorf("Year = %q, want 2020 (bibtex should override)", rec.Year)
	}
	if rec.Venue != "ICML" {
		t.Errorf("Venue = %q, want ICML", rec.Venue)
	}
	if rec.DOI != "10.1000/xyz" {
		t.Errorf("DOI = %q, want 10.1000/xyz", rec.DOI)
	}
}
