package search

import (
	"strconv"
	"strings"

	pdberrors "scifind-backend/internal/errors"
	"scifind-backend/internal/textproc"
)

// TermKind distinguishes the parsed query's token kinds.
type TermKind int

const (
	TermWord TermKind = iota
	TermPhrase
	TermFieldFilter
	TermYearRange
)

// Term is one parsed unit of a query: a bare word/phrase, a negated
// word/phrase, or a field filter such as title:foo or year:2020..2024.
type Term struct {
	Kind     TermKind
	Negate   bool
	Field    string // set for TermFieldFilter and TermYearRange
	Value    string
	RangeLo  string
	RangeHi  string
	Operator string // "AND" or "OR" joining this term to the previous one; "" when no explicit operator preceded it (always so for the first term)
}

// ParsedQuery is a fully parsed, CJK-rewritten search query.
type ParsedQuery struct {
	Terms []Term
}

var fieldPrefixes = map[string]string{
	"title:":  "title",
	"author:": "author",
	"tag:":    "tag",
	"venue:":  "venue",
	"year:":   "year",
	"month:":  "month",
}

// Parse tokenizes q on whitespace and the boolean operators AND/OR,
// recognizing quoted phrases, unary "-" negation, and field filters,
// rewriting CJK segments into spaced quoted phrases so they match the
// per-character CJK indexing the snapshot writer performs.
func Parse(q string) (*ParsedQuery, error) {
	tokens, err := tokenize(q)
	if err != nil {
		return nil, err
	}

	pq := &ParsedQuery{}
	pendingOp := ""
	for _, tok := range tokens {
		upper := strings.ToUpper(tok)
		if upper == "AND" || upper == "OR" {
			pendingOp = upper
			continue
		}
		term, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		term.Operator = pendingOp
		pendingOp = ""
		pq.Terms = append(pq.Terms, term)
	}

	if len(pq.Terms) == 0 && strings.TrimSpace(q) != "" {
		return nil, pdberrors.NewValidationError(pdberrors.CodeInvalidQuery, "query did not parse to any searchable term")
	}
	return pq, nil
}

// tokenize splits q on whitespace and CJK punctuation, keeping
// double-quoted phrases intact as single tokens.
func tokenize(q string) ([]string, error) {
	runes := []rune(q)
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			cur.WriteRune(r)
			inQuote = !inQuote
			if !inQuote {
				flush()
			}
		case inQuote:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || textproc.IsCJKPunctuation(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, pdberrors.NewValidationError(pdberrors.CodeInvalidQuery, "unterminated quoted phrase")
	}
	flush()
	return tokens, nil
}

func parseToken(tok string) (Term, error) {
	negate := false
	if strings.HasPrefix(tok, "-") && len(tok) > 1 {
		negate = true
		tok = tok[1:]
	}

	for prefix, field := range fieldPrefixes {
		if strings.HasPrefix(tok, prefix) {
			value := tok[len(prefix):]
			if (field == "year" || field == "month") && strings.Contains(value, "..") {
				parts := strings.SplitN(value, "..", 2)
				return Term{Kind: TermYearRange, Negate: negate, Field: field, RangeLo: parts[0], RangeHi: parts[1]}, nil
			}
			return Term{Kind: TermFieldFilter, Negate: negate, Field: field, Value: rewriteCJKToken(value)}, nil
		}
	}

	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		inner := tok[1 : len(tok)-1]
		return Term{Kind: TermPhrase, Negate: negate, Value: rewriteCJKToken(inner)}, nil
	}

	return Term{Kind: TermWord, Negate: negate, Value: rewriteCJKToken(tok)}, nil
}

// rewriteCJKToken applies the CJK rewrite rule: a CJK-only segment
// becomes a quoted phrase of space-separated characters; a mixed
// CJK/Latin/digit token is split at script boundaries and each CJK
// segment is rewritten independently; Latin/digit segments pass through.
func rewriteCJKToken(tok string) string {
	segments := textproc.SplitScriptSegments(tok)
	if len(segments) == 0 {
		return tok
	}
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte(' ')
		}
		if containsCJK(seg) {
			b.WriteString(`"` + textproc.InsertCJKSpacing(seg) + `"`)
		} else {
			b.WriteString(seg)
		}
	}
	return b.String()
}

func containsCJK(s string) bool {
	for _, r := range s {
		if textproc.IsCJK(r) {
			return true
		}
	}
	return false
}

// ParseYear validates a year:YYYY or year:YYYY..YYYY bound, returning
// integers for range comparison.
func ParseYear(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
