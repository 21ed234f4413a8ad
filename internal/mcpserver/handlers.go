package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"scifind-backend/internal/assets"
	pdberrors "scifind-backend/internal/errors"
	"scifind-backend/internal/search"
)

// errorResult builds a structured tool error payload, per the error
// handling design's requirement that MCP errors echo paper_id/template
// alongside the stable code.
func errorResult(code, message string, details map[string]interface{}) *mcp.CallToolResult {
	payload := map[string]interface{}{"error": code, "message": message}
	for k, v := range details {
		payload[k] = v
	}
	body, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.NewTextContent(string(body))},
	}
}

func errorResultFromPaperDBError(err error) *mcp.CallToolResult {
	var pe *pdberrors.PaperDBError
	if e, ok := err.(*pdberrors.PaperDBError); ok {
		pe = e
	}
	if pe == nil {
		return errorResult(pdberrors.CodeInternal, err.Error(), nil)
	}
	return errorResult(pe.Code, pe.Message, pe.Details)
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResult(pdberrors.CodeInternal, "failed to encode result", nil), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// truncate caps s at maxChars, appending a visible marker when it cut
// anything. maxChars <= 0 means no bound.
func truncate(s string, maxChars int) (string, bool) {
	runes := []rune(s)
	if maxChars <= 0 || len(runes) <= maxChars {
		return s, false
	}
	return string(runes[:maxChars]) + "\n\n[truncated]", true
}

type searchHit struct {
	PaperID         string `json:"paper_id"`
	Title           string `json:"title"`
	Year            string `json:"year"`
	Venue           string `json:"venue"`
	SnippetMarkdown string `json:"snippet_markdown"`
}

func searchHitsFrom(resp *search.Response) []searchHit {
	hits := make([]searchHit, 0, len(resp.Items))
	for _, it := range resp.Items {
		hits = append(hits, searchHit{
			PaperID:         it.PaperID,
			Title:           it.Title,
			Year:            it.Year,
			Venue:           it.Venue,
			SnippetMarkdown: it.SnippetMarkdown,
		})
	}
	return hits
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func (s *Server) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || query == "" {
		return errorResult(pdberrors.CodeInvalidQuery, "query parameter is required", nil), nil
	}
	limit := clampLimit(request.GetInt("limit", 10))

	resp, searchErr := s.deps.search.Search(ctx, search.Request{Query: query, Page: 1, PageSize: limit, Sort: search.SortRelevance})
	if searchErr != nil {
		return errorResultFromPaperDBError(searchErr), nil
	}
	return textResult(wrapHits(searchHitsFrom(resp)))
}

func (s *Server) handleSearchPapersByKeyword(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil || keyword == "" {
		return errorResult(pdberrors.CodeInvalidQuery, "keyword parameter is required", nil), nil
	}
	limit := clampLimit(request.GetInt("limit", 10))

	resp, searchErr := s.deps.search.Search(ctx, search.Request{Query: keyword, Page: 1, PageSize: limit, Sort: search.SortRelevance})
	if searchErr != nil {
		return errorResultFromPaperDBError(searchErr), nil
	}
	return textResult(wrapHits(searchHitsFrom(resp)))
}

func (s *Server) handleListTopFacets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := request.RequireString("category")
	if err != nil || category == "" {
		return errorResult(pdberrors.CodeValidationError, "category parameter is required", nil), nil
	}
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	rows, total, listErr := s.deps.facets.ListFacet(ctx, category, 1, limit)
	if listErr != nil {
		return errorResultFromPaperDBError(listErr), nil
	}
	return textResult(map[string]interface{}{"category": category, "total": total, "values": rows})
}

type paperMetaRow struct {
	PaperID                       string
	DOI                           *string
	Title                         string
	AuthorsJSON                   string
	Year                          string
	Venue                         string
	KeywordsJSON                  string
	TagsJSON                      string
	PreferredSummaryTemplate      *string
	AvailableSummaryTemplatesJSON string
}

func (s *Server) loadPaperMeta(paperID string) (*paperMetaRow, error) {
	var row paperMetaRow
	if err := s.deps.db.Table("papers").Where("paper_id = ?", paperID).Scan(&row).Error; err != nil {
		return nil, pdberrors.NewDatabaseError("mcp_load_paper", err)
	}
	if row.PaperID == "" {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodePaperNotFound, "paper not found", paperID)
	}
	return &row, nil
}

func unmarshalStrings(raw string) []string {
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func (s *Server) handleGetPaperMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paperID, err := request.RequireString("paper_id")
	if err != nil || paperID == "" {
		return errorResult(pdberrors.CodeValidationError, "paper_id parameter is required", nil), nil
	}

	row, loadErr := s.loadPaperMeta(paperID)
	if loadErr != nil {
		return errorResultFromPaperDBError(loadErr), nil
	}

	var bibtexCount int64
	s.deps.db.WithContext(ctx).Table("bibtex_entries").Where("paper_id = ?", paperID).Count(&bibtexCount)

	return textResult(map[string]interface{}{
		"paper_id":                     row.PaperID,
		"doi":                          row.DOI,
		"title":                        row.Title,
		"authors":                      unmarshalStrings(row.AuthorsJSON),
		"year":                         row.Year,
		"venue":                        row.Venue,
		"keywords":                     unmarshalStrings(row.KeywordsJSON),
		"tags":                         unmarshalStrings(row.TagsJSON),
		"preferred_summary_template":   row.PreferredSummaryTemplate,
		"available_summary_templates": unmarshalStrings(row.AvailableSummaryTemplatesJSON),
		"has_bibtex":                   bibtexCount > 0,
	})
}

func (s *Server) handleGetPaperSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paperID, err := request.RequireString("paper_id")
	if err != nil || paperID == "" {
		return errorResult(pdberrors.CodeValidationError, "paper_id parameter is required", nil), nil
	}

	row, loadErr := s.loadPaperMeta(paperID)
	if loadErr != nil {
		return errorResultFromPaperDBError(loadErr), nil
	}

	available := unmarshalStrings(row.AvailableSummaryTemplatesJSON)
	template := request.GetString("template", "")
	if template == "" {
		if row.PreferredSummaryTemplate == nil {
			return errorResult(pdberrors.CodeTemplateNotAvailable, "paper has no summaries", map[string]interface{}{"paper_id": paperID}), nil
		}
		template = *row.PreferredSummaryTemplate
	}
	if !containsStr(available, template) {
		return errorResult(pdberrors.CodeTemplateNotAvailable, fmt.Sprintf("template %q is not available for this paper", template),
			map[string]interface{}{"paper_id": paperID, "template": template, "available_summary_templates": available}), nil
	}

	path := assets.SummaryPath(paperID, template)
	if len(available) == 1 {
		path = assets.SummaryDefaultPath(paperID)
	}

	data, fetchErr := s.deps.fetcher.Fetch(ctx, s.deps.staticBaseURL+path)
	if fetchErr != nil {
		return errorResultFromPaperDBError(fetchErr), nil
	}

	var summary assets.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return errorResult(pdberrors.CodeAssetFetchFailed, "summary payload was not valid JSON", map[string]interface{}{"paper_id": paperID}), nil
	}

	maxChars := request.GetInt("max_chars", 0)
	text, truncated := truncate(summary.Summary, maxChars)

	return textResult(map[string]interface{}{
		"paper_id":  paperID,
		"template":  template,
		"summary":   text,
		"truncated": truncated,
	})
}

func (s *Server) handleGetPaperSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paperID, err := request.RequireString("paper_id")
	if err != nil || paperID == "" {
		return errorResult(pdberrors.CodeValidationError, "paper_id parameter is required", nil), nil
	}

	var row struct {
		PaperID           string
		SourceContentHash *string
	}
	if dbErr := s.deps.db.Table("papers").Select("paper_id, source_content_hash").Where("paper_id = ?", paperID).Scan(&row).Error; dbErr != nil {
		return errorResultFromPaperDBError(pdberrors.NewDatabaseError("mcp_load_source", dbErr)), nil
	}
	if row.PaperID == "" {
		return errorResultFromPaperDBError(pdberrors.NewNotFoundError(pdberrors.CodePaperNotFound, "paper not found", paperID)), nil
	}
	if row.SourceContentHash == nil {
		return errorResult(pdberrors.CodeAssetMissing, "paper has no extracted source", map[string]interface{}{"paper_id": paperID}), nil
	}

	data, fetchErr := s.deps.fetcher.Fetch(ctx, s.deps.staticBaseURL+"/md/"+*row.SourceContentHash+".md")
	if fetchErr != nil {
		return errorResultFromPaperDBError(fetchErr), nil
	}

	maxChars := request.GetInt("max_chars", 0)
	text, truncated := truncate(string(data), maxChars)

	return textResult(map[string]interface{}{
		"paper_id":  paperID,
		"source":    text,
		"truncated": truncated,
	})
}

func (s *Server) handleGetPaperBibTeX(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paperID, err := request.RequireString("paper_id")
	if err != nil || paperID == "" {
		return errorResult(pdberrors.CodeValidationError, "paper_id parameter is required", nil), nil
	}

	var entry struct {
		EntryKey  string
		EntryType string
		RawText   string
	}
	if dbErr := s.deps.db.WithContext(ctx).Table("bibtex_entries").Where("paper_id = ?", paperID).Scan(&entry).Error; dbErr != nil {
		return errorResultFromPaperDBError(pdberrors.NewDatabaseError("mcp_load_bibtex", dbErr)), nil
	}
	if entry.RawText == "" {
		return errorResult(pdberrors.CodeBibTeXNotFound, "no bibtex entry for this paper", map[string]interface{}{"paper_id": paperID}), nil
	}

	return textResult(map[string]interface{}{
		"paper_id":   paperID,
		"bibtex_raw": entry.RawText,
		"bibtex_key": entry.EntryKey,
		"entry_type": entry.EntryType,
	})
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// wrapHits gives tool results a named top-level "items" key like the
// Read API does, instead of a bare JSON array.
func wrapHits(items []searchHit) map[string]interface{} {
	return map[string]interface{}{"items": items, "total": len(items)}
}
