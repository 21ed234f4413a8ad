package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func searchPapersTool() mcp.Tool {
	return mcp.NewTool("search_papers",
		mcp.WithDescription("Full-text search over the paper snapshot. Returns paper_id, title, year, venue and a match snippet for each hit."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text. Supports quoted phrases, year: and tag: filters."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default 10, max 100)."),
		),
	)
}

func searchPapersByKeywordTool() mcp.Tool {
	return mcp.NewTool("search_papers_by_keyword",
		mcp.WithDescription("Search papers for a single keyword or tag. The keyword runs as a relevance-ranked full-text query, as in search_papers; matches are not restricted to the keyword or tag facets."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Keyword or tag to match."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default 10, max 100)."),
		),
	)
}

func listTopFacetsTool() mcp.Tool {
	return mcp.NewTool("list_top_facets",
		mcp.WithDescription("List the top values of one facet category (author, venue, keyword, tag, year, ...) with paper counts."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Facet kind, e.g. author, institution, venue, keyword, tag, year."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum values to return (default 10)."),
		),
	)
}

func getPaperMetadataTool() mcp.Tool {
	return mcp.NewTool("get_paper_metadata",
		mcp.WithDescription("Fetch a paper's bibliographic metadata: title, authors, year, venue, DOI, keywords, tags, and which summary templates and bibtex exist."),
		mcp.WithString("paper_id",
			mcp.Required(),
			mcp.Description("Snapshot paper_id."),
		),
	)
}

func getPaperSummaryTool() mcp.Tool {
	return mcp.NewTool("get_paper_summary",
		mcp.WithDescription("Fetch a paper's summary text for a given template. Returns extracted text, never a URL."),
		mcp.WithString("paper_id",
			mcp.Required(),
			mcp.Description("Snapshot paper_id."),
		),
		mcp.WithString("template",
			mcp.Description("Summary template name. Defaults to the paper's preferred_summary_template."),
		),
		mcp.WithNumber("max_chars",
			mcp.Description("Truncate the returned text to this many characters."),
		),
	)
}

func getPaperSourceTool() mcp.Tool {
	return mcp.NewTool("get_paper_source",
		mcp.WithDescription("Fetch a paper's extracted Markdown source text. Source documents can be long; set max_chars to bound the response."),
		mcp.WithString("paper_id",
			mcp.Required(),
			mcp.Description("Snapshot paper_id."),
		),
		mcp.WithNumber("max_chars",
			mcp.Description("Truncate the returned text to this many characters."),
		),
	)
}

func getPaperBibTeXTool() mcp.Tool {
	return mcp.NewTool("get_paper_bibtex",
		mcp.WithDescription("Fetch a paper's persisted BibTeX entry."),
		mcp.WithString("paper_id",
			mcp.Required(),
			mcp.Description("Snapshot paper_id."),
		),
	)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchPapersTool(), s.handleSearchPapers)
	s.mcp.AddTool(searchPapersByKeywordTool(), s.handleSearchPapersByKeyword)
	s.mcp.AddTool(listTopFacetsTool(), s.handleListTopFacets)
	s.mcp.AddTool(getPaperMetadataTool(), s.handleGetPaperMetadata)
	s.mcp.AddTool(getPaperSummaryTool(), s.handleGetPaperSummary)
	s.mcp.AddTool(getPaperSourceTool(), s.handleGetPaperSource)
	s.mcp.AddTool(getPaperBibTeXTool(), s.handleGetPaperBibTeX)
}
