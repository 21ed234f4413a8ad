// Package facets implements the browse and relationship-stats surface
// backed by the snapshot's precomputed FacetValue and
// RelationshipCountCache tables.
package facets

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	pdberrors "scifind-backend/internal/errors"
	"scifind-backend/internal/search"
)

// Service answers facet-browse and stats queries against a read-only
// snapshot database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FacetValueRow is one listed facet value with its paper count.
type FacetValueRow struct {
	ID         uint   `json:"id"`
	Value      string `json:"value"`
	PaperCount int    `json:"paper_count"`
}

// RelatedValue is one entry in a facet_stats related bucket.
type RelatedValue struct {
	Value      string `json:"value"`
	PaperCount int    `json:"paper_count"`
}

// Stats is the facet_stats response shape.
type Stats struct {
	FacetType string                    `json:"facet_type"`
	Value     string                    `json:"value"`
	Total     int                       `json:"total"`
	Related   map[string][]RelatedValue `json:"related"`
}

// GlobalStats is the global_stats response shape: totals plus top-N
// buckets per facet kind.
type GlobalStats struct {
	TotalPapers int                        `json:"total_papers"`
	TopFacets   map[string][]FacetValueRow `json:"top_facets"`
}

var validKinds = map[string]bool{
	"author": true, "institution": true, "venue": true, "keyword": true,
	"tag": true, "year": true, "month": true, "summary_template": true,
	"output_language": true, "provider": true, "model": true,
	"prompt_template": true, "translation_lang": true,
}

func validateKind(kind string) error {
	if !validKinds[kind] {
		return pdberrors.NewValidationError(pdberrors.CodeUnknownFacet, "unknown facet kind: "+kind)
	}
	return nil
}

// ListFacet returns a page of values for kind, sorted by paper_count
// descending then value ascending.
func (s *Service) ListFacet(ctx context.Context, kind string, page, pageSize int) ([]FacetValueRow, int, error) {
	if err := validateKind(kind); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	s.db.WithContext(ctx).Table("facet_values").Where("kind = ?", kind).Count(&total)

	var rows []FacetValueRow
	err := s.db.WithContext(ctx).Table("facet_values").
		Select("id, display as value, paper_count").
		Where("kind = ?", kind).
		Order("paper_count DESC, value ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pdberrors.NewDatabaseError("list_facet", err)
	}
	return rows, int(total), nil
}

// FacetPapers returns a facet-scoped search.Response for the given facet
// kind and identifying value (by numeric id or normalized value).
func (s *Service) FacetPapers(ctx context.Context, kind string, idOrValue string, byID bool, page, pageSize int) (*search.Response, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	var facetValueID uint
	var normValue string
	if byID {
		var fv struct {
			ID    uint
			Value string
		}
		if err := s.db.WithContext(ctx).Table("facet_values").Select("id, value").Where("id = ? AND kind = ?", idOrValue, kind).Scan(&fv).Error; err != nil {
			return nil, pdberrors.NewDatabaseError("facet_papers_lookup", err)
		}
		facetValueID, normValue = fv.ID, fv.Value
	} else {
		var fv struct {
			ID    uint
			Value string
		}
		if err := s.db.WithContext(ctx).Table("facet_values").Select("id, value").Where("value = ? AND kind = ?", idOrValue, kind).Scan(&fv).Error; err != nil {
			return nil, pdberrors.NewDatabaseError("facet_papers_lookup", err)
		}
		facetValueID, normValue = fv.ID, fv.Value
	}
	if facetValueID == 0 {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodeUnknownFacet, "facet value not found", normValue)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	type paperRow struct {
		PaperID     string
		Title       string
		Year        string
		Venue       string
		AuthorsJSON string
	}
	var total int64
	s.db.WithContext(ctx).Table("paper_facets").Where("facet_value_id = ?", facetValueID).Count(&total)

	var rows []paperRow
	err := s.db.WithContext(ctx).Table("paper_facets pf").
		Select("p.paper_id, p.title, p.year, p.venue, p.authors_json").
		Joins("JOIN papers p ON p.paper_id = pf.paper_id").
		Where("pf.facet_value_id = ?", facetValueID).
		Order("p.title ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, pdberrors.NewDatabaseError("facet_papers", err)
	}

	items := make([]search.Item, 0, len(rows))
	for _, r := range rows {
		var authors []string
		_ = json.Unmarshal([]byte(r.AuthorsJSON), &authors)
		items = append(items, search.Item{PaperID: r.PaperID, Title: r.Title, Year: r.Year, Venue: r.Venue, Authors: authors})
	}

	return &search.Response{
		Page:     page,
		PageSize: pageSize,
		Total:    int(total),
		HasMore:  int64(page*pageSize) < total,
		Items:    items,
	}, nil
}

// FacetStats returns relationship-cache-backed stats for one facet value,
// grouped by related facet kind, same-kind self-links excluded.
func (s *Service) FacetStats(ctx context.Context, kind, value string) (*Stats, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	var fv struct {
		ID         uint
		Value      string
		PaperCount int
	}
	if err := s.db.WithContext(ctx).Table("facet_values").Where("value = ? AND kind = ?", value, kind).Scan(&fv).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("facet_stats_lookup", err)
	}
	if fv.ID == 0 {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodeUnknownFacet, "facet value not found", value)
	}

	type relRow struct {
		BKind      string
		Value      string
		PaperCount int
	}
	var rows []relRow
	err := s.db.WithContext(ctx).Table("relationship_count_cache rcc").
		Select("rcc.facet_b_kind as b_kind, fv.display as value, rcc.paper_count").
		Joins("JOIN facet_values fv ON fv.id = rcc.facet_b_value_id").
		Where("rcc.facet_a_value_id = ?", fv.ID).
		Order("rcc.facet_b_kind ASC, rcc.paper_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, pdberrors.NewDatabaseError("facet_stats", err)
	}

	related := map[string][]RelatedValue{}
	for _, r := range rows {
		related[r.BKind] = append(related[r.BKind], RelatedValue{Value: r.Value, PaperCount: r.PaperCount})
	}

	return &Stats{FacetType: kind, Value: fv.Value, Total: fv.PaperCount, Related: related}, nil
}

// GlobalStats returns total paper count plus a top-N bucket per facet
// kind (topN defaults to 10), used by the /stats handler.
func (s *Service) GlobalStats(ctx context.Context, topN int) (*GlobalStats, error) {
	if topN <= 0 {
		topN = 10
	}
	var totalPapers int64
	if err := s.db.WithContext(ctx).Table("papers").Count(&totalPapers).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("global_stats_total", err)
	}

	out := &GlobalStats{TotalPapers: int(totalPapers), TopFacets: map[string][]FacetValueRow{}}
	for kind := range validKinds {
		rows, _, err := s.ListFacet(ctx, kind, 1, topN)
		if err != nil {
			continue
		}
		out.TopFacets[kind] = rows
	}
	return out, nil
}
