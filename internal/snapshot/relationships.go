package snapshot

import "gorm.io/gorm"

// buildRelationshipCache precomputes, for every pair of facet values that
// co-occur on at least one paper, how many papers carry both, excluding
// same-kind self-links. It runs after every FacetValue and PaperFacet row
// has committed within the same transaction.
func buildRelationshipCache(tx *gorm.DB) error {
	type coPaperFacet struct {
		PaperID string
		ValueID uint
		Kind    FacetKind
	}
	var rows []coPaperFacet
	if err := tx.Table("paper_facets").
		Select("paper_facets.paper_id, paper_facets.facet_value_id as value_id, facet_values.kind").
		Joins("JOIN facet_values ON facet_values.id = paper_facets.facet_value_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	byPaper := map[string][]coPaperFacet{}
	for _, r := range rows {
		byPaper[r.PaperID] = append(byPaper[r.PaperID], r)
	}

	type pairKey struct {
		aID  uint
		bKind FacetKind
		bID  uint
	}
	counts := map[pairKey]int{}

	for _, facetsOnPaper := range byPaper {
		for i := range facetsOnPaper {
			for j := range facetsOnPaper {
				if i == j {
					continue
				}
				a, b := facetsOnPaper[i], facetsOnPaper[j]
				if a.Kind == b.Kind {
					continue // same-kind self-links excluded
				}
				counts[pairKey{aID: a.ValueID, bKind: b.Kind, bID: b.ValueID}]++
			}
		}
	}

	for k, count := range counts {
		row := RelationshipCountCache{
			FacetAValueID: k.aID,
			FacetBKind:    k.bKind,
			FacetBValueID: k.bID,
			PaperCount:    count,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
