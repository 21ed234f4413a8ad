package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	pdberrors "scifind-backend/internal/errors"
)

// inputRecord mirrors the on-disk shape of one paper record, accepting
// both field-name variants named in the input file format.
type inputRecord struct {
	PaperTitle       string            `json:"paper_title"`
	Title            string            `json:"title"`
	PaperAuthors     []string          `json:"paper_authors"`
	Authors          []string          `json:"authors"`
	PublicationDate  string            `json:"publication_date"`
	PublicationVenue string            `json:"publication_venue"`
	DOI              string            `json:"doi"`
	Keywords         []string          `json:"keywords"`
	Institutions     []string          `json:"institutions"`
	Tags             []string          `json:"tags"`
	Summary          string            `json:"summary"`
	Abstract         string            `json:"abstract"`
	OutputLanguage   string            `json:"output_language"`
	Provider         string            `json:"provider"`
	Model            string            `json:"model"`
	PromptTemplate   string            `json:"prompt_template"`
	SourcePath       string            `json:"source_path"`
	PDFPath          string            `json:"pdf_path"`
	Translations     map[string]string `json:"translations"`
	Images           []string          `json:"images"`
	BibTeX           struct {
		Fields map[string]string `json:"fields"`
	} `json:"bibtex"`
}

// inputCollection accepts either a bare array of records, or an object with
// an explicit template_tag.
type inputCollection struct {
	TemplateTag string        `json:"template_tag"`
	Papers      []inputRecord `json:"papers"`
}

// LoadCollectionOptions controls how a collection missing a template_tag is
// handled: API-backed snapshot builds reject it, interactive builds may ask
// the loader to infer one from record shape.
type LoadCollectionOptions struct {
	InferTemplateTag bool
}

// LoadCollection reads and parses one input file in either accepted shape.
func LoadCollection(path string, opts LoadCollectionOptions) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, fmt.Errorf("reading input %s: %w", path, err)
	}

	var asObject inputCollection
	objErr := json.Unmarshal(data, &asObject)
	if objErr == nil && len(asObject.Papers) > 0 {
		return toCollection(path, asObject.TemplateTag, asObject.Papers, opts)
	}

	var asArray []inputRecord
	if err := json.Unmarshal(data, &asArray); err != nil {
		return Collection{}, fmt.Errorf("parsing input %s: neither object-with-papers nor array shape matched: %w", path, err)
	}
	return toCollection(path, "", asArray, opts)
}

func toCollection(source, templateTag string, records []inputRecord, opts LoadCollectionOptions) (Collection, error) {
	if templateTag == "" {
		if opts.InferTemplateTag {
			templateTag = inferTemplateTag(records)
		} else {
			return Collection{}, pdberrors.NewTemplateTagMissing(source)
		}
	}

	papers := make([]RawRecord, 0, len(records))
	for i, r := range records {
		papers = append(papers, toRawRecord(r, templateTag, source, i))
	}
	return Collection{TemplateTag: templateTag, Papers: papers}, nil
}

func toRawRecord(r inputRecord, templateTag, source string, order int) RawRecord {
	title := r.PaperTitle
	if title == "" {
		title = r.Title
	}
	authors := r.PaperAuthors
	if len(authors) == 0 {
		authors = r.Authors
	}
	return RawRecord{
		Title:            title,
		Authors:          authors,
		PublicationDate:  r.PublicationDate,
		PublicationVenue: r.PublicationVenue,
		DOI:              r.DOI,
		Keywords:         r.Keywords,
		Institutions:     r.Institutions,
		Tags:             r.Tags,
		Summary:          r.Summary,
		Abstract:         r.Abstract,
		OutputLanguage:   r.OutputLanguage,
		Provider:         r.Provider,
		Model:            r.Model,
		PromptTemplate:   r.PromptTemplate,
		SourcePath:       r.SourcePath,
		PDFPath:          r.PDFPath,
		Translations:     r.Translations,
		Images:           r.Images,
		BibTeX:           r.BibTeX.Fields,
		TemplateTag:      templateTag,
		Source:           source,
		SourceOrder:      order,
	}
}

// inferTemplateTag derives a template_tag from record shape when the
// collection did not name one explicitly: the prompt_template field of the
// first record that has one, falling back to "default".
func inferTemplateTag(records []inputRecord) string {
	for _, r := range records {
		if r.PromptTemplate != "" {
			return r.PromptTemplate
		}
	}
	return "default"
}
