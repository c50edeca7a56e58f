package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/logging"
	"github.com/searchdock/searchdock/internal/search"
)

// NewSearchCmd creates the 'search' command for one-shot queries.
func NewSearchCmd() *cobra.Command {
	var topK int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot search against the document index",
		Long: `Search the indexed documents from the command line.

The persisted index is reused when current; otherwise the document
directory is reindexed first.`,
		Example: `  searchdock search "diabetes treatment"
  searchdock search --top-k 10 --json "onboarding checklist"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], topK, asJSON)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "Maximum matches to return (0 uses the configured default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full result as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, topK int, asJSON bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.Setup(cfg.LogLevel)

	params := chunker.Params{
		TargetSize: cfg.Chunking.TargetSize,
		Overlap:    cfg.Chunking.Overlap,
	}

	idx, err := loadOrBuildIndex(cfg.DocsDir, cfg.IndexPath, params)
	if err != nil {
		return err
	}

	engine := search.NewEngine(cfg.RankerBackend(), cfg.Search.DefaultTopK, cfg.Search.MaxTopK)
	if err := engine.Swap(idx); err != nil {
		return fmt.Errorf("failed to install index: %w", err)
	}

	result, err := engine.Search(query, topK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(result.Matches) == 0 {
		fmt.Fprintf(out, "No matches for %q.\n", query)
		return nil
	}
	for i, m := range result.Matches {
		fmt.Fprintf(out, "%d. %s (doc %s, chunk %d, score %.4f)\n   %s\n",
			i+1, m.Title, m.DocID, m.ChunkID, m.Score, m.Snippet)
	}
	return nil
}
