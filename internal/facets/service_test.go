package facets

import "testing"

func TestValidateKindAcceptsKnownKinds(t *testing.T) {
	for kind := range validKinds {
		if err := validateKind(kind); err != nil {
			t.Fatalf("validateKind(%q) returned error: %v", kind, err)
		}
	}
}

func TestValidateKindRejectsUnknown(t *testing.T) {
	if err := validateKind("not_a_real_facet"); err == nil {
		t.Fatalf("expected error for unknown facet kind")
	}
}
