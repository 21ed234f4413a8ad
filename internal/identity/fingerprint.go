package identity

import (
	"encoding/json"

	"github.com/agnivade/levenshtein"
)

// MetaFingerprint preserves the normalized fields behind a weak "meta:" key
// so that later builds can tell whether two papers sharing a collided hash
// are actually the same paper.
type MetaFingerprint struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    string   `json:"year"`
	Venue   string   `json:"venue"`
}

// MarshalForStorage returns the JSON form persisted on the Paper row.
func (f MetaFingerprint) MarshalForStorage() string {
	b, _ := json.Marshal(f)
	return string(b)
}

// ParseMetaFingerprint parses a fingerprint previously stored via
// MarshalForStorage. Legacy snapshots without a fingerprint column produce
// a zero-value fingerprint, which always fails the similarity check below.
func ParseMetaFingerprint(raw string) MetaFingerprint {
	var f MetaFingerprint
	if raw == "" {
		return f
	}
	_ = json.Unmarshal([]byte(raw), &f)
	return f
}

// titleSimilarityThreshold and authorOverlapThreshold gate the weak-key
// collision guard: a meta: match is honored only when both hold.
const (
	titleSimilarityThreshold = 0.82
	authorOverlapThreshold   = 0.5
)

// TitleSimilarity returns a 0..1 Levenshtein-based similarity ratio between
// two already-normalized titles.
func TitleSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// AuthorOverlap returns the Jaccard overlap between two normalized,
// already-sorted author sets.
func AuthorOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	inter := 0
	union := make(map[string]struct{}, len(a)+len(b))
	for _, x := range a {
		union[x] = struct{}{}
	}
	for _, x := range b {
		union[x] = struct{}{}
		if _, ok := set[x]; ok {
			inter++
		}
	}
	if len(union) == 0 {
		return 1
	}
	return float64(inter) / float64(len(union))
}

// FingerprintsMatch applies the weak-key collision guard: a candidate
// "meta:" match is honored only when title similarity and author overlap
// both clear their thresholds.
func FingerprintsMatch(current, previous MetaFingerprint) (bool, float64) {
	titleSim := TitleSimilarity(current.Title, previous.Title)
	authorSim := AuthorOverlap(current.Authors, previous.Authors)
	combined := (titleSim + authorSim) / 2
	return titleSim >= titleSimilarityThreshold && authorSim >= authorOverlapThreshold, combined
}

// NormalizeTitleKeyForMerge is the title-similarity merge key used by the
// input loader when merging records across multiple input collections; it
// reuses the same normalization as meta-key hashing but is exposed
// separately since merge similarity uses a different threshold (0.95) than
// the identity collision guard.
func NormalizeTitleKeyForMerge(title string) string {
	return NormalizeTitle(title)
}

// MergeSimilarityThreshold is the minimum title-similarity ratio for two
// records from different input collections to be merged into one.
const MergeSimilarityThreshold = 0.95
