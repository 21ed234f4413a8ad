package search

import "strings"

// compiledMatch is the result of translating a ParsedQuery into the parts
// an FTS5 MATCH expression and accompanying SQL filters need.
type compiledMatch struct {
	MatchExpr  string   // fts5 MATCH string over title/authors/venue/keywords/etc.
	TagFilters []string // normalized tag values that must be present, applied via a facet join
	YearLo     string
	YearHi     string
	MonthLo    string
	MonthHi    string
}

// ftsColumnFor maps a field-filter name to the papers_fts column it
// restricts to. tag has no corpus column: it is resolved against the
// facet join instead, since tags were never folded into the free-text
// corpus blob.
var ftsColumnFor = map[string]string{
	"title":  "title",
	"author": "authors",
	"venue":  "venue",
}

// compile turns a ParsedQuery into the pieces needed to run it: an FTS5
// MATCH expression for title/author/venue/venue-adjacent free text, plus
// separate structured filters for tag/year/month that the corpus can't
// express as free text.
func compile(pq *ParsedQuery) compiledMatch {
	var cm compiledMatch
	var clauses []string

	for _, t := range pq.Terms {
		switch t.Kind {
		case TermYearRange:
			if t.Field == "year" {
				cm.YearLo, cm.YearHi = t.RangeLo, t.RangeHi
			} else {
				cm.MonthLo, cm.MonthHi = t.RangeLo, t.RangeHi
			}
		case TermFieldFilter:
			switch t.Field {
			case "tag":
				cm.TagFilters = append(cm.TagFilters, t.Value)
			case "year":
				cm.YearLo, cm.YearHi = t.Value, t.Value
			case "month":
				cm.MonthLo, cm.MonthHi = t.Value, t.Value
			default:
				col := ftsColumnFor[t.Field]
				if col == "" {
					continue
				}
				clause := col + ":" + quoteIfNeeded(t.Value)
				if t.Negate {
					clause = "NOT " + clause
				}
				clauses = append(clauses, joinOperator(t.Operator)+clause)
			}
		default:
			clause := quoteIfNeeded(t.Value)
			if t.Negate {
				clause = "NOT " + clause
			}
			clauses = append(clauses, joinOperator(t.Operator)+clause)
		}
	}

	cm.MatchExpr = strings.TrimSpace(strings.Join(clauses, ""))
	return cm
}

// joinOperator returns the separator placed before a clause. An unlabelled
// term (no explicit AND/OR keyword between it and the previous term) still
// needs a space: FTS5 treats adjacent space-separated tokens as an implicit
// AND, but with no separator at all they concatenate into one token.
func joinOperator(op string) string {
	switch op {
	case "OR":
		return " OR "
	case "AND":
		return " AND "
	case "":
		return " "
	default:
		return " " + op + " "
	}
}

func quoteIfNeeded(v string) string {
	if strings.HasPrefix(v, `"`) {
		return v
	}
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}
