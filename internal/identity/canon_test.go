package identity

import "testing"

func TestCanonicalizeDOI(t *testing.T) {
	cases := map[string]string{
		"10.1145/XYZ":                     "10.1145/xyz",
		"doi:10.1145/XYZ":                 "10.1145/xyz",
		"https://doi.org/10.1145/XYZ.":    "10.1145/xyz",
		"http://dx.doi.org/10.1145/XYZ,":  "10.1145/xyz",
		"  10.1145/XYZ ;":                 "10.1145/xyz",
	}
	for in, want := range cases {
		if got := CanonicalizeDOI(in); got != want {
			t.Errorf("CanonicalizeDOI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalizeArxiv(t *testing.T) {
	cases := map[string]string{
		"2301.00001v3":                         "2301.00001",
		"arxiv:2301.00001v3":                   "2301.00001",
		"https://arxiv.org/abs/hep-th/9901001v2": "hep-th/9901001",
		"2301.00001":                            "2301.00001",
	}
	for in, want := range cases {
		if got := CanonicalizeArxiv(in); got != want {
			t.Errorf("CanonicalizeArxiv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPaperIDIsStable(t *testing.T) {
	id1 := PaperID("doi:10.1145/xyz")
	id2 := PaperID("doi:10.1145/xyz")
	if id1 != id2 {
		t.Fatalf("PaperID not stable: %q != %q", id1, id2)
	}
	if len(id1) != 32 {
		t.Fatalf("PaperID length = %d, want 32", len(id1))
	}
}

func TestNormalizeTitleCollapsesAndStrips(t *testing.T) {
	got := NormalizeTitle("Deep  Learning: A Survey!!")
	want := "deep learning a survey"
	if got != want {
		t.Errorf("NormalizeTitle = %q, want %q", got, want)
	}
}

func TestExtractYear(t *testing.T) {
	if got := ExtractYear("March 2021, revised"); got != "2021" {
		t.Errorf("ExtractYear = %q, want 2021", got)
	}
	if got := ExtractYear("no year here"); got != "unknown" {
		t.Errorf("ExtractYear = %q, want unknown", got)
	}
}
