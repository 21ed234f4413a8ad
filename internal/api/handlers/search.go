package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scifind-backend/internal/assets"
	"scifind-backend/internal/search"
)

// SearchHandler serves GET /search.
type SearchHandler struct {
	deps *Deps
}

func NewSearchHandler(deps *Deps) *SearchHandler {
	return &SearchHandler{deps: deps}
}

// item is the decorated search result shape §4.7 specifies: the bare
// search.Item plus availability booleans, asset URLs and summary_urls.
type item struct {
	PaperID                  string            `json:"paper_id"`
	Title                    string            `json:"title"`
	Year                     string            `json:"year"`
	Venue                    string            `json:"venue"`
	Authors                  []string          `json:"authors"`
	SnippetMarkdown          string            `json:"snippet_markdown,omitempty"`
	HasPDF                   bool              `json:"has_pdf"`
	HasSource                bool              `json:"has_source"`
	HasBibTeX                bool              `json:"has_bibtex"`
	PDFURL                   string            `json:"pdf_url,omitempty"`
	SourceURL                string            `json:"source_url,omitempty"`
	ManifestURL              string            `json:"manifest_url"`
	PreferredSummaryTemplate string            `json:"preferred_summary_template,omitempty"`
	SummaryURLs              map[string]string `json:"summary_urls,omitempty"`
}

type searchResponse struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
	HasMore  bool   `json:"has_more"`
	Items    []item `json:"items"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	sort := search.SortOrder(c.Query("sort"))

	resp, err := h.deps.Search.Search(c.Request.Context(), search.Request{
		Query:    c.Query("q"),
		Page:     page,
		PageSize: pageSize,
		Sort:     sort,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]item, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, h.decorate(it))
	}

	c.JSON(http.StatusOK, searchResponse{
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Total:    resp.Total,
		HasMore:  resp.HasMore,
		Items:    items,
	})
}

// decorate augments a bare search.Item with asset availability and URLs by
// re-reading the owning paper row; called once per page item, which is
// bounded at 100 rows by the page_size limit.
func (h *SearchHandler) decorate(it search.Item) item {
	out := item{
		PaperID:         it.PaperID,
		Title:           it.Title,
		Year:            it.Year,
		Venue:           it.Venue,
		Authors:         it.Authors,
		SnippetMarkdown: it.SnippetMarkdown,
		ManifestURL:     AssetURL(h.deps.StaticBaseURL, assets.ManifestPath(it.PaperID), h.deps.SnapshotBuildID, false),
	}

	var row struct {
		SourceContentHash             *string
		PDFContentHash                *string
		PreferredSummaryTemplate      *string
		AvailableSummaryTemplatesJSON string
	}
	if err := h.deps.DB.Table("papers").
		Select("source_content_hash, pdf_content_hash, preferred_summary_template, available_summary_templates_json").
		Where("paper_id = ?", it.PaperID).Scan(&row).Error; err != nil {
		return out
	}

	if row.SourceContentHash != nil {
		out.HasSource = true
		out.SourceURL = AssetURL(h.deps.StaticBaseURL, "/md/"+*row.SourceContentHash+".md", h.deps.SnapshotBuildID, true)
	}
	if row.PDFContentHash != nil {
		out.HasPDF = true
		out.PDFURL = AssetURL(h.deps.StaticBaseURL, "/pdf/"+*row.PDFContentHash+".pdf", h.deps.SnapshotBuildID, true)
	}
	if row.PreferredSummaryTemplate != nil {
		out.PreferredSummaryTemplate = *row.PreferredSummaryTemplate
	}

	var templates []string
	_ = json.Unmarshal([]byte(row.AvailableSummaryTemplatesJSON), &templates)
	if len(templates) > 0 {
		out.SummaryURLs = make(map[string]string, len(templates))
		for _, t := range templates {
			out.SummaryURLs[t] = AssetURL(h.deps.StaticBaseURL, assets.SummaryPath(it.PaperID, t), h.deps.SnapshotBuildID, false)
		}
	}

	var bibCount int64
	h.deps.DB.Table("bibtex_entries").Where("paper_id = ?", it.PaperID).Count(&bibCount)
	out.HasBibTeX = bibCount > 0

	return out
}
