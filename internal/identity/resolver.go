package identity

import (
	"sort"

	pdberrors "scifind-backend/internal/errors"
)

// Candidate is one identity key a paper can be resolved under, paired with
// its strength class.
type Candidate struct {
	Key  string
	Type KeyType
}

// BuildCandidates assembles the ordered candidate list (doi > arxiv > bib >
// meta) for a record, skipping any identifier that is not present.
func BuildCandidates(doi, arxivID, bibKey, metaKey string) []Candidate {
	var cands []Candidate
	if doi != "" {
		cands = append(cands, Candidate{Key: "doi:" + doi, Type: KeyTypeDOI})
	}
	if arxivID != "" {
		cands = append(cands, Candidate{Key: "arxiv:" + arxivID, Type: KeyTypeArxiv})
	}
	if bibKey != "" {
		cands = append(cands, Candidate{Key: "bib:" + bibKey, Type: KeyTypeBib})
	}
	cands = append(cands, Candidate{Key: metaKey, Type: KeyTypeMeta})

	sort.SliceStable(cands, func(i, j int) bool {
		return keyStrength[cands[i].Type] < keyStrength[cands[j].Type]
	})
	return cands
}

// AliasLookup resolves candidate keys against a previous snapshot's
// PaperKeyAlias table and fingerprint store. Implemented by the snapshot
// package so identity has no dependency on the snapshot schema.
type AliasLookup interface {
	FindPaperIDByKey(key string) (paperID string, found bool, err error)
	FindFingerprint(paperID string) (fp MetaFingerprint, found bool, err error)
}

// Resolution is the outcome of resolving one paper's identity.
type Resolution struct {
	PaperID     string
	PaperKey    string
	PaperKeyType KeyType
	Diagnostics []*pdberrors.PaperDBError
}

// Resolve derives paper_id/paper_key/paper_key_type for a record, honoring
// continuity against a previous snapshot when prev is non-nil, and applying
// the weak-key collision guard to any meta: match.
func Resolve(candidates []Candidate, currentFP MetaFingerprint, prev AliasLookup) Resolution {
	if len(candidates) == 0 {
		return Resolution{}
	}
	strongest := candidates[0]

	if prev == nil {
		return Resolution{
			PaperID:      PaperID(strongest.Key),
			PaperKey:     strongest.Key,
			PaperKeyType: strongest.Type,
		}
	}

	type match struct {
		paperID string
		cand    Candidate
	}
	var matches []match
	for _, c := range candidates {
		if id, found, err := prev.FindPaperIDByKey(c.Key); err == nil && found {
			matches = append(matches, match{paperID: id, cand: c})
		}
	}

	res := Resolution{
		PaperID:      PaperID(strongest.Key),
		PaperKey:     strongest.Key,
		PaperKeyType: strongest.Type,
	}
	if len(matches) == 0 {
		return res
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return keyStrength[matches[i].cand.Type] < keyStrength[matches[j].cand.Type]
	})

	distinctIDs := map[string]struct{}{}
	for _, m := range matches {
		distinctIDs[m.paperID] = struct{}{}
	}
	if len(distinctIDs) > 1 {
		ids := make([]string, 0, len(distinctIDs))
		for id := range distinctIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		res.Diagnostics = append(res.Diagnostics, pdberrors.NewIdentityConflict(strongest.Key, ids))
	}

	best := matches[0]

	if best.cand.Type == KeyTypeMeta {
		prevFP, found, err := prev.FindFingerprint(best.paperID)
		if err == nil && found {
			ok, similarity := FingerprintsMatch(currentFP, prevFP)
			if !ok {
				res.Diagnostics = append(res.Diagnostics, pdberrors.NewMetaFingerprintDivergence(strongest.Key, similarity))
				return res
			}
		}
	}

	// paper_key_type always reflects the strongest identifier class
	// available now; continuity only decides which paper_id to reuse.
	res.PaperID = best.paperID
	return res
}
