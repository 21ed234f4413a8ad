package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"scifind-backend/internal/assets"
	pdberrors "scifind-backend/internal/errors"
)

// PaperHandler serves GET /papers/{paper_id}, .../bibtex and .../summary.
type PaperHandler struct {
	deps *Deps
}

func NewPaperHandler(deps *Deps) *PaperHandler {
	return &PaperHandler{deps: deps}
}

type paperRow struct {
	PaperID                       string
	DOI                           *string
	Title                         string
	AuthorsJSON                   string
	Year                          string
	Month                         string
	Venue                         string
	KeywordsJSON                  string
	InstitutionsJSON              string
	TagsJSON                      string
	OutputLanguage                *string
	Provider                      *string
	Model                         *string
	PromptTemplate                *string
	PreferredSummaryTemplate      *string
	AvailableSummaryTemplatesJSON string
	SourceContentHash             *string
	PDFContentHash                *string
	TranslationsJSON              string
}

func (h *PaperHandler) loadPaper(paperID string) (*paperRow, error) {
	var row paperRow
	err := h.deps.DB.Table("papers").Where("paper_id = ?", paperID).Scan(&row).Error
	if err != nil {
		return nil, pdberrors.NewDatabaseError("load_paper", err)
	}
	if row.PaperID == "" {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodePaperNotFound, "paper not found", paperID)
	}
	return &row, nil
}

func jsonStrings(raw string) []string {
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

// GetPaper handles GET /papers/{paper_id}.
func (h *PaperHandler) GetPaper(c *gin.Context) {
	paperID := c.Param("paper_id")
	row, err := h.loadPaper(paperID)
	if err != nil {
		writeError(c, err)
		return
	}

	translations := map[string]string{}
	_ = json.Unmarshal([]byte(row.TranslationsJSON), &translations)
	translationURLs := make(map[string]string, len(translations))
	langs := make([]string, 0, len(translations))
	for lang, hash := range translations {
		langs = append(langs, lang)
		translationURLs[lang] = AssetURL(h.deps.StaticBaseURL, "/md_translate/"+lang+"/"+hash+".md", h.deps.SnapshotBuildID, true)
	}

	resp := gin.H{
		"paper_id":              row.PaperID,
		"doi":                   row.DOI,
		"title":                 row.Title,
		"authors":               jsonStrings(row.AuthorsJSON),
		"year":                  row.Year,
		"month":                 row.Month,
		"venue":                 row.Venue,
		"keywords":              jsonStrings(row.KeywordsJSON),
		"institutions":          jsonStrings(row.InstitutionsJSON),
		"tags":                  jsonStrings(row.TagsJSON),
		"output_language":       row.OutputLanguage,
		"provider":              row.Provider,
		"model":                 row.Model,
		"prompt_template":       row.PromptTemplate,
		"preferred_summary_template":   row.PreferredSummaryTemplate,
		"available_summary_templates": jsonStrings(row.AvailableSummaryTemplatesJSON),
		"translation_languages": langs,
		"translation_urls":      translationURLs,
		"manifest_url":          AssetURL(h.deps.StaticBaseURL, assets.ManifestPath(row.PaperID), h.deps.SnapshotBuildID, false),
	}
	if row.PDFContentHash != nil {
		resp["pdf_url"] = AssetURL(h.deps.StaticBaseURL, "/pdf/"+*row.PDFContentHash+".pdf", h.deps.SnapshotBuildID, true)
	}
	if row.SourceContentHash != nil {
		resp["source_url"] = AssetURL(h.deps.StaticBaseURL, "/md/"+*row.SourceContentHash+".md", h.deps.SnapshotBuildID, true)
	}

	c.JSON(http.StatusOK, resp)
}

// GetBibTeX handles GET /papers/{paper_id}/bibtex.
func (h *PaperHandler) GetBibTeX(c *gin.Context) {
	paperID := c.Param("paper_id")
	row, err := h.loadPaper(paperID)
	if err != nil {
		writeError(c, err)
		return
	}

	var entry struct {
		EntryKey  string
		EntryType string
		RawText   string
	}
	err = h.deps.DB.Table("bibtex_entries").Where("paper_id = ?", paperID).Scan(&entry).Error
	if err != nil {
		writeError(c, pdberrors.NewDatabaseError("load_bibtex", err))
		return
	}
	if entry.RawText == "" {
		writeError(c, pdberrors.NewNotFoundError(pdberrors.CodeBibTeXNotFound, "no bibtex entry for this paper", paperID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paper_id":   row.PaperID,
		"doi":        row.DOI,
		"bibtex_raw": entry.RawText,
		"bibtex_key": entry.EntryKey,
		"entry_type": entry.EntryType,
	})
}

// GetSummary handles GET /papers/{paper_id}/summary?template=….
func (h *PaperHandler) GetSummary(c *gin.Context) {
	paperID := c.Param("paper_id")
	row, err := h.loadPaper(paperID)
	if err != nil {
		writeError(c, err)
		return
	}

	available := jsonStrings(row.AvailableSummaryTemplatesJSON)
	template := c.Query("template")
	if template == "" {
		if row.PreferredSummaryTemplate == nil {
			writeError(c, pdberrors.NewNotFoundError(pdberrors.CodeTemplateNotAvailable, "paper has no summaries", paperID))
			return
		}
		template = *row.PreferredSummaryTemplate
	}
	if !contains(available, template) {
		writeError(c, pdberrors.NewTemplateNotAvailableError(paperID, template, available))
		return
	}

	path := assets.SummaryPath(paperID, template)
	if len(available) == 1 {
		path = assets.SummaryDefaultPath(paperID)
	}

	data, err := h.fetchStatic(c.Request.Context(), path)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

func (h *PaperHandler) fetchStatic(ctx context.Context, path string) ([]byte, error) {
	if h.deps.StaticMode == "dev" && h.deps.ExportDir != "" {
		data, err := os.ReadFile(filepath.Join(h.deps.ExportDir, filepath.FromSlash(path)))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, pdberrors.NewNotFoundError(pdberrors.CodeAssetMissing, "static asset missing", "")
			}
			return nil, pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "reading static asset failed", err)
		}
		return data, nil
	}
	return h.deps.Fetcher.Fetch(ctx, h.deps.StaticBaseURL+path)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
