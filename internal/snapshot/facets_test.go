package snapshot

import "testing"

func TestFacetRegistryDeduplicatesAndCounts(t *testing.T) {
	reg := newFacetRegistry()
	reg.attach("p1", FacetAuthor, []string{"Ada Lovelace", "Alan Turing"})
	reg.attach("p2", FacetAuthor, []string{"ada lovelace"}) // same normalized value, different casing

	if len(reg.display[FacetAuthor]) != 2 {
		t.Fatalf("expected 2 distinct authors, got %d", len(reg.display[FacetAuthor]))
	}

	var count int
	for _, link := range reg.links {
		if link.kind == FacetAuthor && link.norm == "ada lovelace" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected ada lovelace linked to 2 papers, got %d", count)
	}
}

func TestFacetRegistryIgnoresEmptyValues(t *testing.T) {
	reg := newFacetRegistry()
	reg.attach("p1", FacetVenue, []string{""})
	if len(reg.links) != 0 {
		t.Fatalf("expected no links for empty values, got %d", len(reg.links))
	}
}
