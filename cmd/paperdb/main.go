// Package main is the paperdb CLI: it builds immutable snapshots from
// ingested paper collections and serves the Read API and MCP server
// against a built snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var cli struct {
	Snapshot struct {
		Build BuildCmd `cmd:"" help:"Merge input collections, resolve identity, export assets and write a new snapshot DB."`
	} `cmd:"" help:"Snapshot build operations."`

	API struct {
		Serve ServeCmd `cmd:"" help:"Serve the Read API and MCP server against a built snapshot."`
	} `cmd:"" help:"Read API operations."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("paperdb"),
		kong.Description("Build and serve immutable paper snapshots."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "paperdb:", err)
		os.Exit(1)
	}
}
