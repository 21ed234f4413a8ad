package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"scifind-backend/internal/snapshot"
)

// printBuildReport renders the aggregated build diagnostics as a table,
// the CLI-facing summary named in the error handling design.
func printBuildReport(report *snapshot.BuildReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRows([]table.Row{
		{"snapshot_build_id", report.SnapshotBuildID},
		{"schema_version", report.SchemaVersion},
		{"papers_written", report.PapersWritten},
		{"identity_conflicts", report.IdentityConflicts},
		{"fingerprint_divergences", report.FingerprintDivergences},
		{"title_collisions_skipped", report.TitleCollisionsSkipped},
		{"doi_inheritances", report.DOIInheritances},
		{"bibtex_inheritances", report.BibTeXInheritances},
	})
	t.Render()
}
