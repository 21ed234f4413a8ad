package mcpserver

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"

	"scifind-backend/internal/assets"
	pdberrors "scifind-backend/internal/errors"
)

var (
	metadataURI    = regexp.MustCompile(`^paper://([^/]+)/metadata$`)
	summaryURI     = regexp.MustCompile(`^paper://([^/]+)/summary$`)
	summaryTplURI  = regexp.MustCompile(`^paper://([^/]+)/summary/([^/]+)$`)
	sourceURI      = regexp.MustCompile(`^paper://([^/]+)/source$`)
	translationURI = regexp.MustCompile(`^paper://([^/]+)/translation/([^/]+)$`)
)

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("paper://{paper_id}/metadata", "paper_metadata",
			mcp.WithTemplateDescription("Bibliographic metadata for one paper."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readMetadataResource,
	)
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("paper://{paper_id}/summary", "paper_summary",
			mcp.WithTemplateDescription("The paper's preferred-template summary text."),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.readSummaryResource,
	)
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("paper://{paper_id}/summary/{template}", "paper_summary_template",
			mcp.WithTemplateDescription("The paper's summary text for a named template."),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.readSummaryResource,
	)
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("paper://{paper_id}/source", "paper_source",
			mcp.WithTemplateDescription("The paper's extracted Markdown source text."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.readSourceResource,
	)
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate("paper://{paper_id}/translation/{lang}", "paper_translation",
			mcp.WithTemplateDescription("The paper's translated Markdown text for one language."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.readTranslationResource,
	)
}

func textContents(uri, mimeType, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: mimeType, Text: text},
	}
}

func (s *Server) readMetadataResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	m := metadataURI.FindStringSubmatch(request.Params.URI)
	if m == nil {
		return nil, pdberrors.NewValidationError(pdberrors.CodeValidationError, "malformed paper metadata resource URI")
	}
	row, err := s.loadPaperMeta(m[1])
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]interface{}{
		"paper_id": row.PaperID,
		"doi":      row.DOI,
		"title":    row.Title,
		"authors":  unmarshalStrings(row.AuthorsJSON),
		"year":     row.Year,
		"venue":    row.Venue,
		"keywords": unmarshalStrings(row.KeywordsJSON),
		"tags":     unmarshalStrings(row.TagsJSON),
	})
	return textContents(request.Params.URI, "application/json", string(body)), nil
}

func (s *Server) readSummaryResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	var paperID, template string
	if m := summaryTplURI.FindStringSubmatch(uri); m != nil {
		paperID, template = m[1], m[2]
	} else if m := summaryURI.FindStringSubmatch(uri); m != nil {
		paperID = m[1]
	} else {
		return nil, pdberrors.NewValidationError(pdberrors.CodeValidationError, "malformed paper summary resource URI")
	}

	row, err := s.loadPaperMeta(paperID)
	if err != nil {
		return nil, err
	}
	available := unmarshalStrings(row.AvailableSummaryTemplatesJSON)
	if template == "" {
		if row.PreferredSummaryTemplate == nil {
			return nil, pdberrors.NewNotFoundError(pdberrors.CodeTemplateNotAvailable, "paper has no summaries", paperID)
		}
		template = *row.PreferredSummaryTemplate
	}
	if !containsStr(available, template) {
		return nil, pdberrors.NewTemplateNotAvailableError(paperID, template, available)
	}

	path := assets.SummaryPath(paperID, template)
	if len(available) == 1 {
		path = assets.SummaryDefaultPath(paperID)
	}
	data, err := s.deps.fetcher.Fetch(ctx, s.deps.staticBaseURL+path)
	if err != nil {
		return nil, err
	}
	var summary assets.Summary
	if jsonErr := json.Unmarshal(data, &summary); jsonErr != nil {
		return nil, pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "summary payload was not valid JSON", jsonErr)
	}

	text, _ := truncate(summary.Summary, s.deps.defaultTruncation)
	return textContents(uri, "text/plain", text), nil
}

func (s *Server) readSourceResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	m := sourceURI.FindStringSubmatch(request.Params.URI)
	if m == nil {
		return nil, pdberrors.NewValidationError(pdberrors.CodeValidationError, "malformed paper source resource URI")
	}
	paperID := m[1]

	var row struct {
		PaperID           string
		SourceContentHash *string
	}
	if dbErr := s.deps.db.Table("papers").Select("paper_id, source_content_hash").Where("paper_id = ?", paperID).Scan(&row).Error; dbErr != nil {
		return nil, pdberrors.NewDatabaseError("mcp_resource_source", dbErr)
	}
	if row.PaperID == "" {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodePaperNotFound, "paper not found", paperID)
	}
	if row.SourceContentHash == nil {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodeAssetMissing, "paper has no extracted source", paperID)
	}

	data, err := s.deps.fetcher.Fetch(ctx, s.deps.staticBaseURL+"/md/"+*row.SourceContentHash+".md")
	if err != nil {
		return nil, err
	}
	text, _ := truncate(string(data), s.deps.defaultTruncation)
	return textContents(request.Params.URI, "text/markdown", text), nil
}

func (s *Server) readTranslationResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	m := translationURI.FindStringSubmatch(request.Params.URI)
	if m == nil {
		return nil, pdberrors.NewValidationError(pdberrors.CodeValidationError, "malformed paper translation resource URI")
	}
	paperID, lang := m[1], m[2]

	var row struct {
		PaperID          string
		TranslationsJSON string
	}
	if dbErr := s.deps.db.Table("papers").Select("paper_id, translations_json").Where("paper_id = ?", paperID).Scan(&row).Error; dbErr != nil {
		return nil, pdberrors.NewDatabaseError("mcp_resource_translation", dbErr)
	}
	if row.PaperID == "" {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodePaperNotFound, "paper not found", paperID)
	}

	translations := map[string]string{}
	_ = json.Unmarshal([]byte(row.TranslationsJSON), &translations)
	hash, ok := translations[lang]
	if !ok {
		return nil, pdberrors.NewNotFoundError(pdberrors.CodeAssetMissing, "no translation for language "+lang, paperID)
	}

	data, err := s.deps.fetcher.Fetch(ctx, s.deps.staticBaseURL+"/md_translate/"+lang+"/"+hash+".md")
	if err != nil {
		return nil, err
	}
	text, _ := truncate(string(data), s.deps.defaultTruncation)
	return textContents(request.Params.URI, "text/markdown", text), nil
}
