package search

import "testing"

func TestCompileJoinsUnlabelledTermsWithSpace(t *testing.T) {
	pq, err := Parse("machine learning")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := compile(pq)
	want := "machine learning"
	if cm.MatchExpr != want {
		t.Fatalf("MatchExpr = %q, want %q", cm.MatchExpr, want)
	}
}

func TestCompileCJKAndLatinMixQuery(t *testing.T) {
	pq, err := Parse(`深度学习 transformer`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := compile(pq)
	want := `"深 度 学 习" transformer`
	if cm.MatchExpr != want {
		t.Fatalf("MatchExpr = %q, want %q", cm.MatchExpr, want)
	}
}

func TestCompileExplicitOperatorsPreserved(t *testing.T) {
	pq, err := Parse(`attention OR transformer AND memory`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := compile(pq)
	want := "attention OR transformer AND memory"
	if cm.MatchExpr != want {
		t.Fatalf("MatchExpr = %q, want %q", cm.MatchExpr, want)
	}
}

func TestCompileFieldFilterAndTagFilterSeparated(t *testing.T) {
	pq, err := Parse(`title:attention tag:nlp`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := compile(pq)
	if cm.MatchExpr != "title:attention" {
		t.Fatalf("MatchExpr = %q, want %q", cm.MatchExpr, "title:attention")
	}
	if len(cm.TagFilters) != 1 || cm.TagFilters[0] != "nlp" {
		t.Fatalf("TagFilters = %+v, want [nlp]", cm.TagFilters)
	}
}
