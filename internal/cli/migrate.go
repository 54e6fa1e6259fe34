package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/backend"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/repository"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply every pending schema migration to the configured store.

Running it against an up-to-date schema is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, rootOpts)
		},
	}
}

type migrateResult struct {
	Driver string `json:"driver" yaml:"driver"`
	Store  string `json:"store" yaml:"store"`
	Status string `json:"status" yaml:"status"`
}

func runMigrate(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.storeConfig()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL or --database-url is required for postgres")
		}
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("%s", backend.SanitizeError(err, cfg.DatabaseURL))
		}
	default:
		// The SQLite store migrates itself when opened.
		store, err := backend.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
	}

	out := newFormatter(opts.Format, cmd.OutOrStdout())
	result := migrateResult{Driver: cfg.StoreDriver, Store: backend.Describe(cfg), Status: "up to date"}
	if ok, err := out.Structured(result); ok {
		return err
	}
	out.Printf("migrations applied to %s\n", result.Store)
	return nil
}
