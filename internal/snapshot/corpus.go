package snapshot

import (
	"strings"

	"scifind-backend/internal/textproc"
)

// corpusRow is the text actually inserted into papers_fts, assembled from
// a paper's structured fields plus the plain-text extraction of its
// summaries, source Markdown, and translations. CJK runs are spaced at
// index time so the unicode61 tokenizer yields per-character tokens.
type corpusRow struct {
	PaperID         string
	Title           string
	Authors         string
	Venue           string
	Keywords        string
	Institutions    string
	Year            string
	SummaryText     string
	SourceText      string
	TranslatedText  string
}

// buildCorpusRow assembles and CJK-spaces every field of the FTS corpus
// row for one paper. summaryMarkdown, sourceMarkdown, and
// translatedMarkdown are raw Markdown; plain text is extracted before
// CJK spacing is applied.
func buildCorpusRow(paperID, title string, authors, keywords, institutions []string, venue, year string, doi string, summaryMarkdown, sourceMarkdown string, translatedMarkdown []string) corpusRow {
	summaryText := textproc.ExtractPlainText(summaryMarkdown)
	sourceText := textproc.ExtractPlainText(sourceMarkdown)

	var translatedParts []string
	for _, t := range translatedMarkdown {
		translatedParts = append(translatedParts, textproc.ExtractPlainText(t))
	}

	titleWithDOI := title
	if doi != "" {
		titleWithDOI = title + " " + doi
	}

	return corpusRow{
		PaperID:        paperID,
		Title:          textproc.InsertCJKSpacing(titleWithDOI),
		Authors:        textproc.InsertCJKSpacing(strings.Join(authors, " ")),
		Venue:          textproc.InsertCJKSpacing(venue),
		Keywords:       textproc.InsertCJKSpacing(strings.Join(keywords, " ")),
		Institutions:   textproc.InsertCJKSpacing(strings.Join(institutions, " ")),
		Year:           year,
		SummaryText:    textproc.InsertCJKSpacing(summaryText),
		SourceText:     textproc.InsertCJKSpacing(sourceText),
		TranslatedText: textproc.InsertCJKSpacing(strings.Join(translatedParts, " ")),
	}
}
