// Package cli implements the spendlogctl administration commands.
package cli

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/config"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// StoreOptions selects the store the commands operate on. Values default
// to the same environment variables the API server reads.
type StoreOptions struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"spendlog.db"`
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string
	EnvFile string
	Store   StoreOptions

	// hashParams overrides the password cost; tests lower it.
	hashParams *auth.Params
}

// NewRootCommand creates the root command for spendlogctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spendlogctl",
		Short: "Spendlog administration",
		Long:  "Administrative commands for a Spendlog deployment: schema migrations, user provisioning and expense summaries.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolveStore(cmd)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.Store.Driver, "driver", "", "store driver (postgres|sqlite); defaults to STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.Store.DatabaseURL, "database-url", "", "PostgreSQL URL; defaults to DATABASE_URL")
	cmd.PersistentFlags().StringVar(&opts.Store.SQLitePath, "sqlite-path", "", "SQLite file; defaults to SQLITE_PATH")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))

	return cmd
}

// resolveStore fills unset store flags from the environment.
func (o *RootOptions) resolveStore(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return err
	}

	var fromEnv StoreOptions
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("read store settings: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("driver") {
		o.Store.Driver = fromEnv.Driver
	}
	if !flags.Changed("database-url") {
		o.Store.DatabaseURL = fromEnv.DatabaseURL
	}
	if !flags.Changed("sqlite-path") {
		o.Store.SQLitePath = fromEnv.SQLitePath
	}
	return nil
}

// storeConfig maps the options onto the server configuration so the same
// backend factory opens the store.
func (o *RootOptions) storeConfig() *config.Config {
	return &config.Config{
		StoreDriver: o.Store.Driver,
		DatabaseURL: o.Store.DatabaseURL,
		SQLitePath:  o.Store.SQLitePath,
		AutoMigrate: false,
	}
}
