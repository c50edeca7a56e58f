/*
Package cli implements the searchdock command-line interface.

Each subcommand is constructed by a NewXxxCmd function and wired onto
the root command in cmd/searchdock.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/config"
	"github.com/searchdock/searchdock/internal/history"
	"github.com/searchdock/searchdock/internal/ingest"
	"github.com/searchdock/searchdock/internal/logging"
	"github.com/searchdock/searchdock/internal/mcp"
	"github.com/searchdock/searchdock/internal/search"
	"github.com/searchdock/searchdock/internal/store"
	"github.com/searchdock/searchdock/internal/watcher"
)

// NewServeDocsCmd creates the 'serve-docs' command running the document
// search tool server.
func NewServeDocsCmd() *cobra.Command {
	var docsDir string
	var indexPath string

	cmd := &cobra.Command{
		Use:   "serve-docs",
		Short: "Run the document search tool server (stdio transport)",
		Long: `Start the document search server using stdio transport.

The server exposes two tools to clients:
  • doc_search - Ranked full-text search over the indexed documents
  • doc_status - Index health and ranking backend report

On startup the persisted index is reused when it still matches the
document directory; otherwise the directory is reindexed. The directory
is then watched and the index rebuilt on changes.`,
		Example: `  # Serve the configured docs directory
  searchdock serve-docs

  # Serve a specific directory
  searchdock serve-docs --docs ./handbook`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeDocs(cmd, docsDir, indexPath)
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "Document directory (overrides config)")
	cmd.Flags().StringVar(&indexPath, "index", "", "Index file path (overrides config)")

	return cmd
}

// loadConfig honors the root --config flag, falling back to the default
// config path.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		return config.LoadFrom(f.Value.String())
	}
	return config.Load()
}

// runServeDocs starts the docs server with signal handling.
func runServeDocs(cmd *cobra.Command, docsDir, indexPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}
	if indexPath != "" {
		cfg.IndexPath = indexPath
	}

	logging.Setup(cfg.LogLevel)

	params := chunker.Params{
		TargetSize: cfg.Chunking.TargetSize,
		Overlap:    cfg.Chunking.Overlap,
	}

	engine := search.NewEngine(cfg.RankerBackend(), cfg.Search.DefaultTopK, cfg.Search.MaxTopK)

	idx, err := loadOrBuildIndex(cfg.DocsDir, cfg.IndexPath, params)
	if err != nil {
		// The server still starts; doc_search reports the missing
		// index until a rebuild succeeds.
		slog.Error("failed to prepare index at startup", "error", err)
	} else if err := engine.Swap(idx); err != nil {
		slog.Error("failed to install index at startup", "error", err)
	} else {
		status := engine.Status()
		slog.Info("index ready",
			"documents", status.Documents,
			"chunks", status.Chunks,
			"ranker", status.Ranker,
		)
	}

	hist := history.NewStore(cfg.HistoryDB)
	if err := hist.Init(); err != nil {
		slog.Warn("search history unavailable", "error", err)
	} else if err := hist.Cleanup(historyRetention); err != nil {
		slog.Warn("search history cleanup failed", "error", err)
	}
	defer hist.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := watcher.New(cfg.DocsDir, cfg.IndexPath, params, engine)
	if err != nil {
		slog.Warn("document watching disabled", "error", err)
	} else {
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("watcher stopped", "error", err)
			}
		}()
	}

	server := mcp.NewServer(mcp.NewDocsToolset(engine, hist))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("shutting down", "signal", sig.String())
		return nil
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

// loadOrBuildIndex reuses the persisted index when it matches the
// current document set, otherwise reindexes and persists the result. A
// failure to persist is tolerated: the fresh index still serves.
func loadOrBuildIndex(docsDir, indexPath string, params chunker.Params) (*search.Index, error) {
	fingerprint, err := ingest.Fingerprint(docsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint documents: %w", err)
	}

	if indexPath != "" && !store.IsStale(indexPath, fingerprint, params) {
		idx, err := store.Load(indexPath)
		if err == nil {
			slog.Info("loaded persisted index", "path", indexPath)
			return idx, nil
		}
		slog.Warn("failed to load persisted index, reindexing", "error", err)
	}

	docs, err := ingest.LoadDir(docsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	idx, err := search.Build(docs, fingerprint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	if indexPath != "" {
		if err := store.Save(idx, indexPath); err != nil {
			slog.Warn("failed to persist index", "error", err)
		}
	}

	return idx, nil
}
