package identity

import "testing"

type fakeAliasLookup struct {
	byKey        map[string]string
	fingerprints map[string]MetaFingerprint
}

func (f *fakeAliasLookup) FindPaperIDByKey(key string) (string, bool, error) {
	id, ok := f.byKey[key]
	return id, ok, nil
}

func (f *fakeAliasLookup) FindFingerprint(paperID string) (MetaFingerprint, bool, error) {
	fp, ok := f.fingerprints[paperID]
	return fp, ok, nil
}

func TestResolveWithoutContinuity(t *testing.T) {
	cands := BuildCandidates("10.1145/xyz", "", "", "meta:abc")
	res := Resolve(cands, MetaFingerprint{}, nil)
	if res.PaperKeyType != KeyTypeDOI {
		t.Fatalf("PaperKeyType = %v, want doi", res.PaperKeyType)
	}
	if res.PaperID != PaperID("doi:10.1145/xyz") {
		t.Fatalf("PaperID mismatch")
	}
}

func TestResolveDOIContinuity(t *testing.T) {
	metaKey := "meta:abc123"
	oldID := PaperID(metaKey)
	prev := &fakeAliasLookup{byKey: map[string]string{metaKey: oldID}}

	cands := BuildCandidates("", "", "", metaKey)
	first := Resolve(cands, MetaFingerprint{Title: "t", Year: "2020"}, prev)
	if first.PaperID != oldID {
		t.Fatalf("expected continuity match, got %q want %q", first.PaperID, oldID)
	}

	prev.fingerprints = map[string]MetaFingerprint{oldID: {Title: "t", Year: "2020"}}
	candsWithDOI := BuildCandidates("10.1145/xyz", "", "", metaKey)
	second := Resolve(candsWithDOI, MetaFingerprint{Title: "t", Year: "2020"}, prev)
	if second.PaperID != oldID {
		t.Fatalf("expected continuity to carry forward when DOI is added, got %q want %q", second.PaperID, oldID)
	}
	if second.PaperKeyType != KeyTypeDOI {
		t.Fatalf("PaperKeyType should reflect strongest available key, got %v", second.PaperKeyType)
	}
}

func TestResolveIdentityConflict(t *testing.T) {
	prev := &fakeAliasLookup{byKey: map[string]string{
		"doi:10.1/a":   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"meta:xyz": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}}
	cands := BuildCandidates("10.1/a", "", "", "meta:xyz")
	res := Resolve(cands, MetaFingerprint{}, prev)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected an identity conflict diagnostic")
	}
}

func TestResolveWeakKeyGuardDivergence(t *testing.T) {
	metaKey := "meta:collision"
	oldID := PaperID(metaKey)
	prev := &fakeAliasLookup{
		byKey:        map[string]string{metaKey: oldID},
		fingerprints: map[string]MetaFingerprint{oldID: {Title: "completely different paper about biology", Authors: []string{"zhang"}}},
	}
	cands := BuildCandidates("", "", "", metaKey)
	current := MetaFingerprint{Title: "a totally unrelated survey of quantum computing", Authors: []string{"smith"}}
	res := Resolve(cands, current, prev)

	foundDivergence := false
	for _, d := range res.Diagnostics {
		if d.Code == "meta_fingerprint_divergence" {
			foundDivergence = true
		}
	}
	if !foundDivergence {
		t.Fatalf("expected meta_fingerprint_divergence diagnostic, got %+v", res.Diagnostics)
	}
	if res.PaperID != PaperID(metaKey) {
		t.Fatalf("expected fresh paper_id on divergence, got %q", res.PaperID)
	}
}
