package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gorm.io/gorm"

	"scifind-backend/internal/assets"
	pdberrors "scifind-backend/internal/errors"
	"scifind-backend/internal/identity"
	"scifind-backend/internal/ingest"
)

// Writer populates a fresh snapshot database from merged, enriched
// records in a single transaction, as required by §4.4: all facet rows,
// joins, aliases, FTS corpus, and the relationship cache come from one
// atomic build pass.
type Writer struct {
	db       *Database
	exporter *assets.Exporter
	logger   *slog.Logger
	prev     *Database
	prevLookup *AliasLookup
}

// NewWriter constructs a Writer. prev may be nil when no
// --previous-snapshot-db was given, in which case every paper gets a
// fresh identity and no DOI/BibTeX inheritance happens.
func NewWriter(db *Database, exporter *assets.Exporter, prev *Database, logger *slog.Logger) *Writer {
	w := &Writer{db: db, exporter: exporter, logger: logger, prev: prev}
	if prev != nil {
		w.prevLookup = NewAliasLookup(prev)
	}
	return w
}

// BuildReport summarizes a build: counts plus aggregated diagnostics,
// never per-paper warnings (§4.4).
type BuildReport struct {
	SnapshotBuildID      string
	PapersWritten        int
	IdentityConflicts    int
	FingerprintDivergences int
	TitleCollisionsSkipped int
	DOIInheritances      int
	BibTeXInheritances   int
	SchemaVersion        int
}

const schemaVersion = 1

// resolvedPaper is one record after identity resolution and asset export,
// ready to be persisted.
type resolvedPaper struct {
	record   ingest.Record
	res      identity.Resolution
	export   *assets.ExportResult
	fp       identity.MetaFingerprint
}

// Build resolves identity for every record, exports assets (when an
// exporter is configured), and persists the full schema plus FTS indexes
// in one transaction.
func (w *Writer) Build(ctx context.Context, buildID string, snapshotID string, records []ingest.Record) (*BuildReport, error) {
	resolved := make([]resolvedPaper, 0, len(records))
	report := &BuildReport{SnapshotBuildID: snapshotID, SchemaVersion: schemaVersion}

	for _, rec := range records {
		fp := identity.MetaFingerprint{
			Title:   identity.NormalizeTitle(preferredTitle(rec)),
			Authors: identity.NormalizeAuthors(rec.Authors),
			Year:    rec.Year,
			Venue:   identity.NormalizeVenue(rec.Venue),
		}
		arxivID := identity.ArxivIDFromDOI(rec.DOI)
		cands := identity.BuildCandidates(identity.CanonicalizeDOI(rec.DOI), arxivID, rec.BibTeXKey, identity.MetaKey(fp))

		var lookup identity.AliasLookup
		if w.prevLookup != nil {
			lookup = w.prevLookup
		}
		res := identity.Resolve(cands, fp, lookup)
		for _, d := range res.Diagnostics {
			switch d.Code {
			case pdberrors.CodeIdentityConflict:
				report.IdentityConflicts++
			case pdberrors.CodeMetaFingerprintDivergence:
				report.FingerprintDivergences++
			}
		}

		var exportResult *assets.ExportResult
		if w.exporter != nil {
			input := assets.ExportInput{
				PaperID:            res.PaperID,
				FirstAuthor:        assets.FirstAuthor(rec.Authors),
				Year:               rec.Year,
				Title:              rec.Title,
				PDFPath:            rec.PDFPath,
				SourceMDPath:       rec.SourcePath,
				Translations:       rec.Translations,
				Images:             rec.Images,
				Summaries:          rec.Summaries,
				AvailableTemplates: rec.AvailableTemplates,
			}
			result, err := w.exporter.ExportPaper(input)
			if err != nil {
				return nil, fmt.Errorf("exporting assets for %s: %w", res.PaperID, err)
			}
			exportResult = result
		}

		resolved = append(resolved, resolvedPaper{record: rec, res: res, export: exportResult, fp: fp})
	}

	if err := w.db.Transaction(func(tx *gorm.DB) error {
		return w.persist(tx, buildID, resolved, report)
	}); err != nil {
		return nil, err
	}

	report.PapersWritten = len(resolved)
	return report, nil
}

// readMarkdownIfExists returns path's contents for FTS indexing, or "" when
// path is empty or unreadable — a missing source file degrades the paper's
// searchable text, the same graceful-missing handling the asset exporter
// applies to the same path, rather than failing the whole build.
func readMarkdownIfExists(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func preferredTitle(rec ingest.Record) string {
	if t, ok := rec.BibTeXFields["title"]; ok && t != "" {
		return t
	}
	return rec.Title
}

func (w *Writer) persist(tx *gorm.DB, buildID string, resolved []resolvedPaper, report *BuildReport) error {
	if err := tx.Create(&SnapshotBuild{SnapshotBuildID: buildID, SchemaVersion: schemaVersion}).Error; err != nil {
		return err
	}

	reg := newFacetRegistry()

	for _, rp := range resolved {
		if err := w.persistPaper(tx, rp, reg, report); err != nil {
			return err
		}
	}

	if err := reg.flush(tx); err != nil {
		return err
	}

	return buildRelationshipCache(tx)
}

func (w *Writer) persistPaper(tx *gorm.DB, rp resolvedPaper, reg *facetRegistry, report *BuildReport) error {
	rec := rp.record
	res := rp.res

	var doi *string
	if rec.DOI != "" {
		d := identity.CanonicalizeDOI(rec.DOI)
		doi = &d
	}
	bibKey, bibFields := rec.BibTeXKey, rec.BibTeXFields
	if w.prev != nil {
		inheritedDOI, inheritedKey, inheritedFields := w.inheritFromPrevious(res.PaperID, doi, bibKey, bibFields)
		if doi == nil && inheritedDOI != nil {
			doi = inheritedDOI
			report.DOIInheritances++
		}
		if bibKey == "" && len(bibFields) == 0 && (inheritedKey != "" || len(inheritedFields) > 0) {
			bibKey, bibFields = inheritedKey, inheritedFields
			report.BibTeXInheritances++
		}
	}
	var preferredTemplate *string
	if len(rec.AvailableTemplates) > 0 {
		t := rec.AvailableTemplates[0]
		preferredTemplate = &t
	}

	translationsJSON := "{}"
	var sourceHash, pdfHash *string
	if rp.export != nil {
		if rp.export.SourceHash != "" {
			sourceHash = &rp.export.SourceHash
		}
		if rp.export.PDFHash != "" {
			pdfHash = &rp.export.PDFHash
		}
		translationsJSON = jsonMap(rp.export.Translations)
	}

	paper := Paper{
		PaperID:          res.PaperID,
		PaperKey:         res.PaperKey,
		PaperKeyType:     string(res.PaperKeyType),
		Title:            rec.Title,
		AuthorsJSON:      jsonList(rec.Authors),
		Year:             rec.Year,
		Month:            rec.Month,
		Venue:            rec.Venue,
		DOI:              doi,
		KeywordsJSON:     jsonList(rec.Keywords),
		InstitutionsJSON: jsonList(rec.Institutions),
		TagsJSON:         jsonList(rec.Tags),
		PreferredSummaryTemplate:      preferredTemplate,
		AvailableSummaryTemplatesJSON: jsonList(rec.AvailableTemplates),
		SourceContentHash:             sourceHash,
		PDFContentHash:                pdfHash,
		TranslationsJSON:              translationsJSON,
		MetaFingerprintJSON:           rp.fp.MarshalForStorage(),
	}
	if rec.OutputLanguage != "" {
		paper.OutputLanguage = &rec.OutputLanguage
	}
	if rec.Provider != "" {
		paper.Provider = &rec.Provider
	}
	if rec.Model != "" {
		paper.Model = &rec.Model
	}
	if rec.PromptTemplate != "" {
		paper.PromptTemplate = &rec.PromptTemplate
	}

	if err := tx.Create(&paper).Error; err != nil {
		return err
	}

	if err := tx.Create(&PaperKeyAlias{PaperKey: res.PaperKey, PaperID: res.PaperID}).Error; err != nil {
		return err
	}

	if bibKey != "" || len(bibFields) > 0 {
		entryType := ingest.InferEntryType(bibFields)
		raw := ingest.FormatBibTeXEntry(bibKey, entryType, bibFields)
		if err := tx.Create(&BibTeXEntry{PaperID: res.PaperID, EntryKey: bibKey, EntryType: entryType, RawText: raw}).Error; err != nil {
			return err
		}
	}

	reg.attach(res.PaperID, FacetAuthor, rec.Authors)
	reg.attach(res.PaperID, FacetInstitution, rec.Institutions)
	reg.attach(res.PaperID, FacetVenue, nonEmpty(rec.Venue))
	reg.attach(res.PaperID, FacetKeyword, rec.Keywords)
	reg.attach(res.PaperID, FacetTag, rec.Tags)
	reg.attach(res.PaperID, FacetYear, nonEmpty(rec.Year))
	reg.attach(res.PaperID, FacetMonth, nonEmpty(rec.Month))
	reg.attach(res.PaperID, FacetSummaryTemplate, rec.AvailableTemplates)
	reg.attach(res.PaperID, FacetOutputLanguage, nonEmpty(rec.OutputLanguage))
	reg.attach(res.PaperID, FacetProvider, nonEmpty(rec.Provider))
	reg.attach(res.PaperID, FacetModel, nonEmpty(rec.Model))
	reg.attach(res.PaperID, FacetPromptTemplate, nonEmpty(rec.PromptTemplate))
	reg.attach(res.PaperID, FacetTranslationLang, translationLangs(rec.Translations))

	var summaryMD string
	if len(rec.Summaries) > 0 {
		if preferredTemplate != nil {
			summaryMD = rec.Summaries[*preferredTemplate]
		} else {
			for _, v := range rec.Summaries {
				summaryMD = v
				break
			}
		}
	}

	sourceMD := readMarkdownIfExists(rec.SourcePath)
	var translatedMD []string
	for _, path := range rec.Translations {
		if content := readMarkdownIfExists(path); content != "" {
			translatedMD = append(translatedMD, content)
		}
	}

	row := buildCorpusRow(res.PaperID, rec.Title, rec.Authors, rec.Keywords, rec.Institutions, rec.Venue, rec.Year,
		strOrEmpty(doi), summaryMD, sourceMD, translatedMD)

	if err := tx.Exec(
		`INSERT INTO papers_fts (paper_id, title, authors, venue, keywords, institutions, year, summary_text, source_text, translated_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.PaperID, row.Title, row.Authors, row.Venue, row.Keywords, row.Institutions, row.Year, row.SummaryText, row.SourceText, row.TranslatedText,
	).Error; err != nil {
		return err
	}

	return tx.Exec(
		`INSERT INTO papers_trgm (paper_id, title, venue) VALUES (?, ?, ?)`,
		res.PaperID, rec.Title, rec.Venue,
	).Error
}

// inheritFromPrevious fills in a missing DOI or BibTeX payload from the
// matched paper_id's row in the previous snapshot. Current-input values
// always take precedence; this only runs when the current record is
// silent on a field.
func (w *Writer) inheritFromPrevious(paperID string, currentDOI *string, currentBibKey string, currentBibFields map[string]string) (*string, string, map[string]string) {
	var prevPaper Paper
	if err := w.prev.Where("paper_id = ?", paperID).First(&prevPaper).Error; err != nil {
		return nil, "", nil
	}

	var inheritedDOI *string
	if currentDOI == nil && prevPaper.DOI != nil {
		inheritedDOI = prevPaper.DOI
	}

	var inheritedKey string
	var inheritedFields map[string]string
	if currentBibKey == "" && len(currentBibFields) == 0 {
		var entry BibTeXEntry
		if err := w.prev.Where("paper_id = ?", paperID).First(&entry).Error; err == nil {
			inheritedKey = entry.EntryKey
			inheritedFields = map[string]string{"_type": entry.EntryType}
		}
	}

	return inheritedDOI, inheritedKey, inheritedFields
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func translationLangs(m map[string]string) []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
