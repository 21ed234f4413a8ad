package assets

// AssetStatus is whether a manifest-referenced asset was actually written.
type AssetStatus string

const (
	StatusAvailable AssetStatus = "available"
	StatusMissing   AssetStatus = "missing"
)

// AssetEntry is one asset reference inside a paper's manifest.
type AssetEntry struct {
	StaticPath string      `json:"static_path"`
	SHA256     string      `json:"sha256,omitempty"`
	Status     AssetStatus `json:"status"`
	Ext        string      `json:"ext,omitempty"`
}

// Manifest lists every asset a paper uses, plus enough naming metadata to
// reconstruct a downloadable folder.
type Manifest struct {
	PaperID          string       `json:"paper_id"`
	PDF              *AssetEntry  `json:"pdf,omitempty"`
	SourceMD         *AssetEntry  `json:"source_md,omitempty"`
	TranslatedMD     []AssetEntry `json:"translated_md,omitempty"`
	SummaryTemplates []string     `json:"summary_templates"`
	Images           []AssetEntry `json:"images,omitempty"`
	FolderName       string       `json:"folder_name"`
	FolderNameShort  string       `json:"folder_name_short"`
}

// Summary is one per-template summary JSON object.
type Summary struct {
	PaperID    string                 `json:"paper_id"`
	PaperTitle string                 `json:"paper_title"`
	Template   string                 `json:"template"`
	Summary    string                 `json:"summary"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
