package assets

import "sort"

// BuildSummaries turns a template->markdown map into sorted Summary
// objects ready for JSON emission, one per template tag.
func BuildSummaries(paperID, paperTitle string, byTemplate map[string]string, metadata map[string]interface{}) []Summary {
	templates := make([]string, 0, len(byTemplate))
	for t := range byTemplate {
		templates = append(templates, t)
	}
	sort.Strings(templates)

	summaries := make([]Summary, 0, len(templates))
	for _, t := range templates {
		summaries = append(summaries, Summary{
			PaperID:    paperID,
			PaperTitle: paperTitle,
			Template:   t,
			Summary:    byTemplate[t],
			Metadata:   metadata,
		})
	}
	return summaries
}

// SummaryPath returns the static-tree path for a paper's per-template
// summary JSON. When a paper has exactly one template, callers also write
// the un-suffixed /summary/<paper_id>.json convenience path.
func SummaryPath(paperID, template string) string {
	return "/summary/" + paperID + "/" + template + ".json"
}

// SummaryDefaultPath is the convenience path used when a paper has only
// one summary template.
func SummaryDefaultPath(paperID string) string {
	return "/summary/" + paperID + ".json"
}

// ManifestPath returns the static-tree path for a paper's manifest JSON.
func ManifestPath(paperID string) string {
	return "/manifest/" + paperID + ".json"
}
