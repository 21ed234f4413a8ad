package snapshot

import (
	"sort"

	"gorm.io/gorm"

	"scifind-backend/internal/identity"
)

// facetRegistry accumulates every (paper_id, kind, value) pair seen during
// a build and flushes deduplicated FacetValue rows and PaperFacet joins at
// the end, assigning numeric ids deterministically by normalized-value
// sort order so rebuilds with identical input produce identical ids.
type facetRegistry struct {
	display map[FacetKind]map[string]string // normalized -> first-seen display form
	links   []facetLink
	idIndex map[FacetKind]map[string]uint
}

type facetLink struct {
	paperID string
	kind    FacetKind
	norm    string
}

func newFacetRegistry() *facetRegistry {
	return &facetRegistry{display: map[FacetKind]map[string]string{}}
}

// attach registers one paper's values for a facet kind, normalizing per
// the facet-kind rules (NFKC, lowercase match key, whitespace collapsed).
func (r *facetRegistry) attach(paperID string, kind FacetKind, values []string) {
	seen := map[string]struct{}{}
	for _, v := range values {
		if v == "" {
			continue
		}
		norm := normalizeFacetValue(kind, v)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		if r.display[kind] == nil {
			r.display[kind] = map[string]string{}
		}
		if _, exists := r.display[kind][norm]; !exists {
			r.display[kind][norm] = v
		}
		r.links = append(r.links, facetLink{paperID: paperID, kind: kind, norm: norm})
	}
}

func normalizeFacetValue(kind FacetKind, v string) string {
	switch kind {
	case FacetAuthor:
		return identity.NormalizeAuthor(v)
	default:
		return identity.NormalizeVenue(v) // NFKC + lowercase + whitespace collapse, generic enough for other kinds
	}
}

// flush writes deduplicated FacetValue rows (with final paper_count) and
// every PaperFacet join.
func (r *facetRegistry) flush(tx *gorm.DB) error {
	idByKindValue := map[FacetKind]map[string]uint{}

	for _, kind := range AllFacetKinds {
		values := r.display[kind]
		if len(values) == 0 {
			continue
		}
		norms := make([]string, 0, len(values))
		for n := range values {
			norms = append(norms, n)
		}
		sort.Strings(norms)

		counts := map[string]int{}
		for _, link := range r.links {
			if link.kind == kind {
				counts[link.norm]++
			}
		}

		idByKindValue[kind] = map[string]uint{}
		for _, n := range norms {
			fv := FacetValue{Kind: kind, Value: n, Display: values[n], PaperCount: counts[n]}
			if err := tx.Create(&fv).Error; err != nil {
				return err
			}
			idByKindValue[kind][n] = fv.ID
		}
	}

	for _, link := range r.links {
		id, ok := idByKindValue[link.kind][link.norm]
		if !ok {
			continue
		}
		if err := tx.Create(&PaperFacet{PaperID: link.paperID, FacetValueID: id}).Error; err != nil {
			return err
		}
	}

	r.idIndex = idByKindValue
	return nil
}
