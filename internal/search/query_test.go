package search

import (
	"strings"
	"testing"
)

func TestRewriteCJKTokenPureCJK(t *testing.T) {
	got := rewriteCJKToken("深度学习")
	want := `"深 度 学 习"`
	if got != want {
		t.Fatalf("rewriteCJKToken = %q, want %q", got, want)
	}
}

func TestRewriteCJKTokenMixedScript(t *testing.T) {
	got := rewriteCJKToken("GPT模型")
	if !strings.HasPrefix(got, "GPT") {
		t.Fatalf("expected latin prefix preserved, got %q", got)
	}
	if !strings.Contains(got, `"模 型"`) {
		t.Fatalf("expected spaced quoted CJK segment, got %q", got)
	}
}

func TestRewriteCJKTokenLatinPassesThrough(t *testing.T) {
	got := rewriteCJKToken("transformer")
	if got != "transformer" {
		t.Fatalf("rewriteCJKToken = %q, want unchanged", got)
	}
}

func TestParseFieldFilterAndYearRange(t *testing.T) {
	pq, err := Parse(`title:attention year:2020..2024`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pq.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(pq.Terms))
	}
	if pq.Terms[0].Kind != TermFieldFilter || pq.Terms[0].Field != "title" {
		t.Fatalf("expected title field filter, got %+v", pq.Terms[0])
	}
	if pq.Terms[1].Kind != TermYearRange || pq.Terms[1].RangeLo != "2020" || pq.Terms[1].RangeHi != "2024" {
		t.Fatalf("expected year range 2020..2024, got %+v", pq.Terms[1])
	}
}

func TestParseQuotedPhraseAndNegation(t *testing.T) {
	pq, err := Parse(`"neural networks" -biology`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pq.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(pq.Terms))
	}
	if pq.Terms[0].Kind != TermPhrase {
		t.Fatalf("expected phrase term, got %+v", pq.Terms[0])
	}
	if !pq.Terms[1].Negate || pq.Terms[1].Value != "biology" {
		t.Fatalf("expected negated biology term, got %+v", pq.Terms[1])
	}
}

func TestParseUnterminatedQuoteFails(t *testing.T) {
	_, err := Parse(`"unterminated`)
	if err == nil {
		t.Fatalf("expected error for unterminated quote")
	}
}

func TestValidateRequestRejectsOversizedOffset(t *testing.T) {
	err := ValidateRequest(Request{Page: 101, PageSize: 100})
	if err == nil {
		t.Fatalf("expected offset_too_large error")
	}
}

func TestValidateRequestRejectsLongQuery(t *testing.T) {
	long := strings.Repeat("a", MaxQueryLength+1)
	err := ValidateRequest(Request{Query: long, Page: 1, PageSize: 20})
	if err == nil {
		t.Fatalf("expected q_too_long error")
	}
}

func TestBuildSnippetStripsCJKSpacingAndMarksMatch(t *testing.T) {
	source := "深 度 学 习 is a subfield of machine learning."
	snippet := BuildSnippet(source, []string{"深度学习"}, 100)
	if strings.Contains(snippet, "深 度") {
		t.Fatalf("expected CJK spacing stripped, got %q", snippet)
	}
	if !strings.Contains(snippet, snippetOpen) || !strings.Contains(snippet, snippetClose) {
		t.Fatalf("expected snippet markers, got %q", snippet)
	}
}
