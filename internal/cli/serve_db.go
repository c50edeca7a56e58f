package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/searchdock/searchdock/internal/hrdb"
	"github.com/searchdock/searchdock/internal/logging"
	"github.com/searchdock/searchdock/internal/mcp"
)

// NewServeDBCmd creates the 'serve-db' command running the HR database
// tool server.
func NewServeDBCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "serve-db",
		Short: "Run the HR database tool server (stdio transport)",
		Long: `Start the HR database server using stdio transport.

The CSV file is loaded into an in-memory SQLite database at startup.
The server exposes four read-only tools:
  • hr_metadata    - Dataset metadata from the CSV header comments
  • hr_schema      - Column names and inferred types
  • hr_query       - Validated read-only SQL (SELECT/WITH only)
  • hr_find_people - Structured employee search without SQL`,
		Example: `  # Serve the configured CSV
  searchdock serve-db

  # Serve a specific CSV
  searchdock serve-db --csv ./data/hr_people.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeDB(cmd, csvPath)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "HR people CSV path (overrides config)")

	return cmd
}

// runServeDB starts the database server with signal handling.
func runServeDB(cmd *cobra.Command, csvPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if csvPath != "" {
		cfg.CSVPath = csvPath
	}

	logging.Setup(cfg.LogLevel)

	db, err := hrdb.FromCSV(cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to load HR database: %w", err)
	}
	defer db.Close()

	slog.Info("HR database ready", "csv", cfg.CSVPath)

	server := mcp.NewServer(mcp.NewHRToolset(db))

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
