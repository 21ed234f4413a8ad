// Package identity derives stable paper identifiers from heterogeneous
// input metadata and carries continuity for those identifiers across
// snapshot rebuilds.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// KeyType enumerates the strength-ordered classes of paper_key.
type KeyType string

const (
	KeyTypeDOI  KeyType = "doi"
	KeyTypeArxiv KeyType = "arxiv"
	KeyTypeBib  KeyType = "bib"
	KeyTypeMeta KeyType = "meta"
)

// keyStrength orders key types strongest-first; lower is stronger.
var keyStrength = map[KeyType]int{
	KeyTypeDOI:  0,
	KeyTypeArxiv: 1,
	KeyTypeBib:  2,
	KeyTypeMeta: 3,
}

// Stronger reports whether a is a stronger (or equal) identity class than b.
func Stronger(a, b KeyType) bool {
	return keyStrength[a] <= keyStrength[b]
}

var (
	doiTrim     = regexp.MustCompile(`^(?:doi:\s*|https?://(?:dx\.)?doi\.org/)`)
	arxivTrim   = regexp.MustCompile(`^(?:arxiv:\s*|https?://arxiv\.org/abs/)`)
	arxivVerRE  = regexp.MustCompile(`v\d+$`)
	yearRE      = regexp.MustCompile(`\d{4}`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// CanonicalizeDOI strips known DOI prefixes, URL-decodes percent escapes,
// lowercases, and trims trailing punctuation, per the canonicalization
// rules for DOI identifiers.
func CanonicalizeDOI(raw string) string {
	s := strings.TrimSpace(raw)
	s = doiTrim.ReplaceAllString(s, "")
	if decoded, err := url.QueryUnescape(s); err == nil {
		s = decoded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".,;) \t\r\n")
	return s
}

// CanonicalizeArxiv strips known arXiv prefixes, lowercases, and drops a
// trailing version suffix such as "v3".
func CanonicalizeArxiv(raw string) string {
	s := strings.TrimSpace(raw)
	s = arxivTrim.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = arxivVerRE.ReplaceAllString(s, "")
	return s
}

// NormalizeTitle applies NFKC normalization, lowercasing, punctuation and
// symbol stripping, and whitespace collapsing, producing the match key used
// both for meta-fingerprint hashing and for title-similarity comparisons.
func NormalizeTitle(title string) string {
	s := norm.NFKC.String(title)
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return collapseWhitespace(b.String())
}

// NormalizeAuthor applies NFKC normalization, lowercasing, and whitespace
// collapsing to a single author name.
func NormalizeAuthor(author string) string {
	s := norm.NFKC.String(author)
	s = strings.ToLower(s)
	return collapseWhitespace(s)
}

// NormalizeAuthors normalizes and sorts a list of authors, the order used
// when hashing a meta fallback key.
func NormalizeAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		n := NormalizeAuthor(a)
		if n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeVenue applies NFKC normalization, lowercasing, and whitespace
// collapsing to a venue name.
func NormalizeVenue(venue string) string {
	return collapseWhitespace(strings.ToLower(norm.NFKC.String(venue)))
}

var arxivDOIRE = regexp.MustCompile(`(?i)^10\.48550/arxiv\.(.+)$`)

// ArxivIDFromDOI extracts an arXiv identifier from an arXiv-minted DOI
// (10.48550/arXiv.<id>), the only way an arXiv key surfaces when an input
// record carries only a doi field and no dedicated arxiv identifier.
func ArxivIDFromDOI(doi string) string {
	canon := CanonicalizeDOI(doi)
	m := arxivDOIRE.FindStringSubmatch(canon)
	if m == nil {
		return ""
	}
	return CanonicalizeArxiv(m[1])
}

// ExtractYear returns the first 4-digit run found in s, or "unknown".
func ExtractYear(s string) string {
	if y := yearRE.FindString(s); y != "" {
		return y
	}
	return "unknown"
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// MetaKey builds the "meta:<hash>" fallback identity key from a
// fingerprint's normalized fields, per the metadata-fallback
// canonicalization rule: hash the concatenation of normalized title,
// sorted normalized authors, extracted year, and normalized venue.
func MetaKey(fp MetaFingerprint) string {
	parts := strings.Join(fp.Authors, ",")
	concat := fp.Title + "|" + parts + "|" + fp.Year + "|" + fp.Venue
	sum := sha256.Sum256([]byte(concat))
	return "meta:" + hex.EncodeToString(sum[:])
}

// PaperID derives the 32-hex-char paper_id from a paper_key:
// truncate32(sha256_hex("v1|" + paper_key)).
func PaperID(paperKey string) string {
	sum := sha256.Sum256([]byte("v1|" + paperKey))
	return hex.EncodeToString(sum[:])[:32]
}
