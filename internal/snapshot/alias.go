package snapshot

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"scifind-backend/internal/identity"
)

// AliasLookup adapts a previously built snapshot database to the
// identity.AliasLookup interface, letting the resolver query continuity
// across rebuilds without the identity package depending on GORM.
type AliasLookup struct {
	db *Database
}

func NewAliasLookup(db *Database) *AliasLookup {
	return &AliasLookup{db: db}
}

func (a *AliasLookup) FindPaperIDByKey(key string) (string, bool, error) {
	var row PaperKeyAlias
	err := a.db.Where("paper_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.PaperID, true, nil
}

func (a *AliasLookup) FindFingerprint(paperID string) (identity.MetaFingerprint, bool, error) {
	var row Paper
	err := a.db.Where("paper_id = ?", paperID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.MetaFingerprint{}, false, nil
	}
	if err != nil {
		return identity.MetaFingerprint{}, false, err
	}
	if row.MetaFingerprintJSON == "" {
		return identity.MetaFingerprint{}, false, nil
	}
	return identity.ParseMetaFingerprint(row.MetaFingerprintJSON), true, nil
}

// jsonList is a small helper used throughout the writer to serialize
// string slices into the snapshot's text columns.
func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func parseJSONList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func jsonMap(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func parseJSONMap(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
