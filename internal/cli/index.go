package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/ingest"
	"github.com/searchdock/searchdock/internal/logging"
	"github.com/searchdock/searchdock/internal/search"
	"github.com/searchdock/searchdock/internal/store"
)

// NewIndexCmd creates the 'index' command for one-shot indexing.
func NewIndexCmd() *cobra.Command {
	var docsDir string
	var outPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index and write it to disk",
		Long: `Index the document directory and persist the result.

An up-to-date index is left untouched unless --force is given.`,
		Example: `  searchdock index
  searchdock index --docs ./handbook --out ./handbook.index.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, docsDir, outPath, force)
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "Document directory (overrides config)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output index path (overrides config)")
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if the index is up to date")

	return cmd
}

func runIndex(cmd *cobra.Command, docsDir, outPath string, force bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}
	if outPath != "" {
		cfg.IndexPath = outPath
	}

	logging.Setup(cfg.LogLevel)

	fingerprint, err := ingest.Fingerprint(cfg.DocsDir)
	if err != nil {
		return fmt.Errorf("failed to fingerprint documents: %w", err)
	}

	params := chunker.Params{
		TargetSize: cfg.Chunking.TargetSize,
		Overlap:    cfg.Chunking.Overlap,
	}

	if !force && !store.IsStale(cfg.IndexPath, fingerprint, params) {
		fmt.Fprintf(cmd.OutOrStdout(), "Index at %s is up to date.\n", cfg.IndexPath)
		return nil
	}

	docs, err := ingest.LoadDir(cfg.DocsDir)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	idx, err := search.Build(docs, fingerprint, params)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	if err := store.Save(idx, cfg.IndexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents (%d chunks) to %s\n",
		len(idx.Documents), len(idx.Chunks), cfg.IndexPath)
	return nil
}
