package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gorm.io/gorm"

	pdberrors "scifind-backend/internal/errors"
)

// Engine runs search requests against a read-only snapshot database.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

type ftsHitRow struct {
	PaperID      string
	Title        string
	Year         string
	Venue        string
	AuthorsJSON  string
	SourceText   string
	SummaryText  string
	Rank         float64
}

// Search executes req against the full FTS corpus (or a plain listing
// when the query is empty) and returns a bounded, paginated Response.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.Sort == "" {
		req.Sort = SortRelevance
	}

	if strings.TrimSpace(req.Query) == "" {
		return e.listAll(ctx, req)
	}

	pq, err := Parse(req.Query)
	if err != nil {
		return nil, err
	}
	cm := compile(pq)
	if cm.MatchExpr == "" && len(cm.TagFilters) == 0 && cm.YearLo == "" && cm.MonthLo == "" {
		return nil, pdberrors.NewValidationError(pdberrors.CodeInvalidQuery, "query did not parse to any searchable term")
	}

	resp, err := e.runMatchQuery(ctx, req, cm)
	if err != nil {
		return nil, err
	}
	if resp.Total == 0 && !hasFieldFilters(pq) {
		if fallback, ferr := e.runTrigramFallback(ctx, req); ferr == nil && len(fallback.Items) > 0 {
			return fallback, nil
		}
	}
	return resp, nil
}

// hasFieldFilters reports whether q named any title:/author:/venue:/tag:
// field filter. The trigram fallback only applies to plain free-text
// queries, since a typo-tolerant substring match against title/venue can't
// honor a structured field restriction.
func hasFieldFilters(pq *ParsedQuery) bool {
	for _, t := range pq.Terms {
		if t.Kind == TermFieldFilter {
			return true
		}
	}
	return false
}

type trgmHitRow struct {
	PaperID     string
	Title       string
	Year        string
	Venue       string
	AuthorsJSON string
}

// runTrigramFallback is the typo-tolerant fallback named in §3.1/§4.5:
// when an FTS5 MATCH against the full corpus returns nothing, retry
// against papers_trgm (trigram-tokenized title/venue) and rank the
// candidates it turns up by edit distance to the original query, closest
// first.
func (e *Engine) runTrigramFallback(ctx context.Context, req Request) (*Response, error) {
	needle := strings.ToLower(strings.TrimSpace(req.Query))
	if needle == "" {
		return &Response{Page: req.Page, PageSize: req.PageSize}, nil
	}

	// A trigram MATCH on the whole needle only hits it as a contiguous
	// substring, so the needle's trigrams are OR-ed to let near misses in.
	runes := []rune(needle)
	var grams []string
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, `"`+strings.ReplaceAll(string(runes[i:i+3]), `"`, `""`)+`"`)
	}
	if len(grams) == 0 {
		return &Response{Page: req.Page, PageSize: req.PageSize}, nil
	}

	query := `SELECT p.paper_id, p.title, p.year, p.venue, p.authors_json
	          FROM papers_trgm t
	          JOIN papers p ON p.paper_id = t.paper_id
	          WHERE t MATCH ?`

	var rows []trgmHitRow
	if err := e.db.WithContext(ctx).Raw(query, strings.Join(grams, " OR ")).Scan(&rows).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("trigram_fallback_query", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return levenshtein.ComputeDistance(needle, strings.ToLower(rows[i].Title)) <
			levenshtein.ComputeDistance(needle, strings.ToLower(rows[j].Title))
	})

	total := len(rows)
	start, end := paginate(req.Page, req.PageSize, total)
	page := rows[start:end]

	items := make([]Item, 0, len(page))
	for _, r := range page {
		var authors []string
		_ = json.Unmarshal([]byte(r.AuthorsJSON), &authors)
		items = append(items, Item{
			PaperID: r.PaperID,
			Title:   r.Title,
			Year:    r.Year,
			Venue:   r.Venue,
			Authors: authors,
		})
	}

	return &Response{
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
		HasMore:  end < total,
		Items:    items,
	}, nil
}

func (e *Engine) runMatchQuery(ctx context.Context, req Request, cm compiledMatch) (*Response, error) {
	var args []interface{}

	// bm25 weights follow papers_fts's indexed column order (paper_id is
	// UNINDEXED and excluded): title, authors, venue, keywords,
	// institutions, year, summary_text, source_text, translated_text.
	// Title and summary are weighted above source/translated text per §4.5.
	base := `SELECT p.paper_id, p.title, p.year, p.venue, p.authors_json, f.source_text, f.summary_text,
	         bm25(papers_fts, 10.0, 2.0, 3.0, 1.5, 1.0, 1.0, 4.0, 1.0, 1.0) AS rank
	         FROM papers_fts f
	         JOIN papers p ON p.paper_id = f.paper_id`

	var conds []string
	if cm.MatchExpr != "" {
		conds = append(conds, "f MATCH ?")
		args = append(args, cm.MatchExpr)
	}
	if cm.YearLo != "" {
		conds = append(conds, "p.year >= ? AND p.year <= ?")
		args = append(args, cm.YearLo, orDefault(cm.YearHi, cm.YearLo))
	}
	if cm.MonthLo != "" {
		conds = append(conds, "p.month >= ? AND p.month <= ?")
		args = append(args, cm.MonthLo, orDefault(cm.MonthHi, cm.MonthLo))
	}
	if len(cm.TagFilters) > 0 {
		conds = append(conds, tagExistsClause(len(cm.TagFilters)))
		for _, tag := range cm.TagFilters {
			args = append(args, tag)
		}
	}

	query := base
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " " + orderClause(req.Sort)

	var rows []ftsHitRow
	if err := e.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("search_query", err)
	}

	total := len(rows)
	start, end := paginate(req.Page, req.PageSize, total)
	page := rows[start:end]

	items := make([]Item, 0, len(page))
	for _, r := range page {
		var authors []string
		_ = json.Unmarshal([]byte(r.AuthorsJSON), &authors)
		snippet := BuildSnippet(firstNonEmpty(r.SummaryText, r.SourceText), matchTerms(cm), 240)
		items = append(items, Item{
			PaperID:         r.PaperID,
			Title:           r.Title,
			Year:            r.Year,
			Venue:           r.Venue,
			Authors:         authors,
			SnippetMarkdown: snippet,
			Rank:            r.Rank,
		})
	}

	return &Response{
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
		HasMore:  end < total,
		Items:    items,
	}, nil
}

func (e *Engine) listAll(ctx context.Context, req Request) (*Response, error) {
	var total int64
	if err := e.db.WithContext(ctx).Table("papers").Count(&total).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("list_count", err)
	}

	type plainRow struct {
		PaperID     string
		Title       string
		Year        string
		Venue       string
		AuthorsJSON string
	}
	var rows []plainRow
	q := e.db.WithContext(ctx).Table("papers").
		Select("paper_id, title, year, venue, authors_json").
		Order(sqlOrderColumn(req.Sort)).
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("list_query", err)
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		var authors []string
		_ = json.Unmarshal([]byte(r.AuthorsJSON), &authors)
		items = append(items, Item{PaperID: r.PaperID, Title: r.Title, Year: r.Year, Venue: r.Venue, Authors: authors})
	}

	return &Response{
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    int(total),
		HasMore:  int64((req.Page)*req.PageSize) < total,
		Items:    items,
	}, nil
}

func paginate(page, pageSize, total int) (int, int) {
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func orderClause(sort SortOrder) string {
	switch sort {
	case SortYearDesc:
		return "ORDER BY p.year DESC, p.title ASC"
	case SortYearAsc:
		return "ORDER BY p.year ASC, p.title ASC"
	case SortTitleAsc:
		return "ORDER BY p.title ASC"
	case SortTitleDesc:
		return "ORDER BY p.title DESC"
	case SortVenueAsc:
		return "ORDER BY p.venue ASC, p.title ASC"
	case SortVenueDesc:
		return "ORDER BY p.venue DESC, p.title ASC"
	default:
		return "ORDER BY rank, p.title ASC"
	}
}

func sqlOrderColumn(sort SortOrder) string {
	switch sort {
	case SortYearDesc:
		return "year DESC, title ASC"
	case SortYearAsc:
		return "year ASC, title ASC"
	case SortTitleDesc:
		return "title DESC"
	case SortVenueAsc:
		return "venue ASC, title ASC"
	case SortVenueDesc:
		return "venue DESC, title ASC"
	default:
		return "title ASC"
	}
}

func tagExistsClause(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`EXISTS (
		SELECT 1 FROM paper_facets pf
		JOIN facet_values fv ON fv.id = pf.facet_value_id
		WHERE pf.paper_id = p.paper_id AND fv.kind = 'tag' AND fv.value IN (%s)
	)`, strings.Join(placeholders, ","))
}

func matchTerms(cm compiledMatch) []string {
	if cm.MatchExpr == "" {
		return nil
	}
	return strings.Fields(strings.NewReplacer("AND", "", "OR", "", "NOT", "").Replace(cm.MatchExpr))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
