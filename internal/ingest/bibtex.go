package ingest

import (
	"fmt"
	"sort"
	"strings"
)

// FormatBibTeXEntry renders a deterministic BibTeX entry from its fields,
// sorted by field name so that rebuilds from identical inputs produce
// byte-identical text. It is not required to match the original source
// formatting, only to be stable and parseable.
func FormatBibTeXEntry(key, entryType string, fields map[string]string) string {
	if entryType == "" {
		entryType = InferEntryType(fields)
	}
	if key == "" {
		key = "entry"
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		if k == "_key" || k == "_type" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)
	for i, name := range names {
		sep := ","
		if i == len(names)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %s = {%s}%s\n", name, fields[name], sep)
	}
	b.WriteString("}\n")
	return b.String()
}

// InferEntryType guesses a BibTeX entry type from the fields present when
// none was supplied explicitly.
func InferEntryType(fields map[string]string) string {
	if t, ok := fields["_type"]; ok && t != "" {
		return t
	}
	if _, ok := fields["booktitle"]; ok {
		return "inproceedings"
	}
	if _, ok := fields["journal"]; ok {
		return "article"
	}
	if _, ok := fields["publisher"]; ok {
		return "book"
	}
	return "misc"
}
