package search

import (
	"regexp"
	"sort"
	"strings"

	"scifind-backend/internal/textproc"
)

const (
	snippetOpen  = "[[["
	snippetClose = "]]]"
)

var boundaryChars = regexp.MustCompile(`[.!?\n]`)

// BuildSnippet renders a plain-Markdown snippet around matched substrings
// from sourceText, wrapping each match in literal triple brackets and
// stripping the per-character CJK spacing inserted at index time so the
// result reads naturally.
func BuildSnippet(sourceText string, matchedTerms []string, maxLen int) string {
	clean := textproc.StripCJKSpacing(sourceText)
	if clean == "" {
		return ""
	}

	lower := strings.ToLower(clean)
	var bestIdx = -1
	var bestTerm string
	for _, term := range matchedTerms {
		t := strings.ToLower(strings.Trim(term, `"`))
		if t == "" {
			continue
		}
		if idx := strings.Index(lower, t); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
			bestIdx = idx
			bestTerm = clean[idx : idx+len(t)]
		}
	}

	if bestIdx == -1 {
		return truncateToSafeBoundary(clean, maxLen)
	}

	start := snapToBoundary(clean, bestIdx-maxLen/2, -1)
	end := snapToBoundary(clean, bestIdx+len(bestTerm)+maxLen/2, 1)
	if start < 0 {
		start = 0
	}
	if end > len(clean) {
		end = len(clean)
	}

	window := clean[start:end]
	var alts []string
	for _, term := range matchedTerms {
		if t := strings.Trim(term, `"`); t != "" {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	sort.Slice(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	highlighted := regexp.MustCompile(`(?i)`+strings.Join(alts, "|")).
		ReplaceAllString(window, snippetOpen+"${0}"+snippetClose)

	var b strings.Builder
	if start > 0 {
		b.WriteString("… ")
	}
	b.WriteString(highlighted)
	if end < len(clean) {
		b.WriteString(" …")
	}
	return b.String()
}

// snapToBoundary nudges idx to the nearest sentence boundary (. ! ? or a
// newline) in direction dir (-1 backward, +1 forward), looking at most 40
// bytes away; idx is returned unchanged when no boundary is that close.
func snapToBoundary(s string, idx, dir int) int {
	if idx < 0 {
		return 0
	}
	if idx > len(s) {
		return len(s)
	}
	window := 40
	if dir < 0 {
		lo := idx - window
		if lo < 0 {
			lo = 0
		}
		if loc := boundaryChars.FindAllStringIndex(s[lo:idx], -1); len(loc) > 0 {
			last := loc[len(loc)-1]
			return lo + last[1]
		}
		return idx
	}
	hi := idx + window
	if hi > len(s) {
		hi = len(s)
	}
	if loc := boundaryChars.FindStringIndex(s[idx:hi]); loc != nil {
		return idx + loc[0] + 1
	}
	return idx
}

func truncateToSafeBoundary(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	end := snapToBoundary(s, maxLen, 1)
	if end > len(s) {
		end = len(s)
	}
	return strings.TrimSpace(s[:end]) + " …"
}
