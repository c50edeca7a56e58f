package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/history"
)

// historyRetention bounds how long search-analytics records are kept.
// serve-docs prunes older records at startup.
const historyRetention = 90 * 24 * time.Hour

// NewHistoryCmd creates the 'history' command for inspecting recorded
// searches.
func NewHistoryCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent search activity",
		Long: `List searches recorded by the document search server, newest first.

Queries are stored as SHA256 hashes; the original text is never kept.`,
		Example: `  searchdock history
  searchdock history --since 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, since)
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to list searches")

	return cmd
}

func runHistory(cmd *cobra.Command, since time.Duration) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	hist := history.NewStore(cfg.HistoryDB)
	if err := hist.Init(); err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer hist.Close()

	records, err := hist.RecentSearches(time.Now().Add(-since))
	if err != nil {
		return fmt.Errorf("failed to read search history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "No searches recorded in the last %s.\n", since)
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %d results  query %s\n",
			rec.Timestamp.Local().Format(time.RFC3339), rec.ResultsCount, rec.QueryHash[:12])
	}
	return nil
}
