/*
Package main is the entry point for the searchdock CLI.

searchdock packages a document search engine and a read-only HR
database as JSON-RPC tool servers spoken over stdio.

Usage:
  searchdock [command]

Available Commands:
  serve-docs  Run the document search tool server (stdio transport)
  serve-db    Run the HR database tool server (stdio transport)
  index       Build the search index and write it to disk
  search      Run a one-shot search against the document index
  history     Show recent search activity
  version     Print version information
  help        Help about any command

Examples:
  # Run the document search server
  searchdock serve-docs --docs ./handbook

  # Run the HR database server
  searchdock serve-db --csv ./data/hr_people.csv

  # Build the index ahead of time
  searchdock index
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/cli"
	"github.com/searchdock/searchdock/internal/version"
)

// Version information (set via ldflags during build)
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate

	rootCmd := &cobra.Command{
		Use:   "searchdock",
		Short: "Document search and HR database tool servers over stdio",
		Long: `searchdock exposes two stdio tool servers to JSON-RPC clients:

  • serve-docs - Ranked full-text search over a directory of
    text/markdown documents (doc_search, doc_status)
  • serve-db   - Read-only SQL and structured queries over an HR
    people CSV loaded into in-memory SQLite (hr_metadata, hr_schema,
    hr_query, hr_find_people)

Both servers speak newline-delimited JSON-RPC 2.0 on stdin/stdout and
log to stderr only.`,
		Version: version.GetVersion(),
	}

	rootCmd.PersistentFlags().String("config", "", "Config file path (default ~/.searchdock.yaml)")

	rootCmd.AddCommand(cli.NewServeDocsCmd())
	rootCmd.AddCommand(cli.NewServeDBCmd())
	rootCmd.AddCommand(cli.NewIndexCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
