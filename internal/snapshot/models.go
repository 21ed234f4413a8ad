package snapshot

import "time"

// FacetKind enumerates the thirteen facet dimensions papers are indexed by.
type FacetKind string

const (
	FacetAuthor          FacetKind = "author"
	FacetInstitution     FacetKind = "institution"
	FacetVenue           FacetKind = "venue"
	FacetKeyword         FacetKind = "keyword"
	FacetTag             FacetKind = "tag"
	FacetYear            FacetKind = "year"
	FacetMonth           FacetKind = "month"
	FacetSummaryTemplate FacetKind = "summary_template"
	FacetOutputLanguage  FacetKind = "output_language"
	FacetProvider        FacetKind = "provider"
	FacetModel           FacetKind = "model"
	FacetPromptTemplate  FacetKind = "prompt_template"
	FacetTranslationLang FacetKind = "translation_lang"
)

// AllFacetKinds lists every facet kind in a stable order, used when
// precomputing the relationship cache and when listing stats buckets.
var AllFacetKinds = []FacetKind{
	FacetAuthor, FacetInstitution, FacetVenue, FacetKeyword, FacetTag,
	FacetYear, FacetMonth, FacetSummaryTemplate, FacetOutputLanguage,
	FacetProvider, FacetModel, FacetPromptTemplate, FacetTranslationLang,
}

// Paper is one row of the relational snapshot. It is immutable once a
// build commits: serve-time components open the database read-only.
type Paper struct {
	PaperID        string `gorm:"primaryKey;type:varchar(32)"`
	PaperKey       string `gorm:"type:text;not null;index"`
	PaperKeyType   string `gorm:"type:varchar(10);not null"`
	Title          string `gorm:"type:text;not null"`
	AuthorsJSON    string `gorm:"column:authors_json;type:text"`
	Year           string `gorm:"type:varchar(10);index"`
	Month          string `gorm:"type:varchar(10)"`
	Venue          string `gorm:"type:text;index"`
	DOI            *string `gorm:"type:varchar(255);index"`
	KeywordsJSON   string  `gorm:"column:keywords_json;type:text"`
	InstitutionsJSON string `gorm:"column:institutions_json;type:text"`
	TagsJSON       string  `gorm:"column:tags_json;type:text"`
	OutputLanguage *string `gorm:"type:varchar(10)"`
	Provider       *string `gorm:"type:varchar(100)"`
	Model          *string `gorm:"type:varchar(100)"`
	PromptTemplate *string `gorm:"type:varchar(100)"`

	PreferredSummaryTemplate   *string `gorm:"type:varchar(100)"`
	AvailableSummaryTemplatesJSON string `gorm:"column:available_summary_templates_json;type:text"`

	SourceContentHash *string `gorm:"type:varchar(64)"`
	PDFContentHash    *string `gorm:"type:varchar(64)"`
	TranslationsJSON  string  `gorm:"column:translations_json;type:text"`

	MetaFingerprintJSON string `gorm:"column:meta_fingerprint_json;type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Paper) TableName() string { return "papers" }

// PaperKeyAlias records every identity key that has ever resolved to a
// paper_id, consulted for continuity across rebuilds.
type PaperKeyAlias struct {
	PaperKey string `gorm:"primaryKey;type:text"`
	PaperID  string `gorm:"type:varchar(32);not null;index"`
}

func (PaperKeyAlias) TableName() string { return "paper_key_aliases" }

// FacetValue is one row type per facet kind: a deduplicated normalized
// value with the number of papers carrying it.
type FacetValue struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Kind       FacetKind `gorm:"type:varchar(30);not null;index:idx_facet_kind_value,priority:1"`
	Value      string    `gorm:"type:text;not null;index:idx_facet_kind_value,priority:2"`
	Display    string    `gorm:"type:text"`
	PaperCount int       `gorm:"not null;default:0"`
}

func (FacetValue) TableName() string { return "facet_values" }

// PaperFacet is the join row between a paper and one of its facet values.
type PaperFacet struct {
	PaperID      string `gorm:"primaryKey;type:varchar(32)"`
	FacetValueID uint   `gorm:"primaryKey"`
}

func (PaperFacet) TableName() string { return "paper_facets" }

// RelationshipCountCache precomputes, for each (facet_a value, facet_b
// kind+value) pair, how many papers carry both. Same-kind self-links are
// never stored.
type RelationshipCountCache struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	FacetAValueID uint     `gorm:"not null;index:idx_rel_a,priority:1"`
	FacetBKind   FacetKind `gorm:"type:varchar(30);not null;index:idx_rel_a,priority:2"`
	FacetBValueID uint     `gorm:"not null;index:idx_rel_a,priority:3"`
	PaperCount   int       `gorm:"not null"`
}

func (RelationshipCountCache) TableName() string { return "relationship_count_cache" }

// BibTeXEntry is the persisted, deterministically formatted BibTeX text
// for a paper, one row per paper.
type BibTeXEntry struct {
	PaperID   string `gorm:"primaryKey;type:varchar(32)"`
	EntryKey  string `gorm:"type:varchar(255)"`
	EntryType string `gorm:"type:varchar(50)"`
	RawText   string `gorm:"type:text"`
}

func (BibTeXEntry) TableName() string { return "bibtex_entries" }

// SnapshotBuild is the single build-metadata row stamped into every
// snapshot database, giving serve-time components a cache-busting token.
type SnapshotBuild struct {
	SnapshotBuildID string    `gorm:"primaryKey;type:varchar(64)"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	SchemaVersion   int       `gorm:"not null"`
}

func (SnapshotBuild) TableName() string { return "snapshot_build" }

// BuildDiagnostic is the table for non-fatal build-time diagnostics
// (identity conflicts, fingerprint divergence, skipped merges). Writer.Build
// does not insert rows into it; BuildReport's aggregated counts are
// computed in memory.
type BuildDiagnostic struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Code    string `gorm:"type:varchar(64);not null;index"`
	Message string `gorm:"type:text"`
	PaperID string `gorm:"type:varchar(32)"`
}

func (BuildDiagnostic) TableName() string { return "build_diagnostics" }
