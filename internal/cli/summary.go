package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/aggregate"
	"github.com/spendlog/spendlog/internal/backend"
	"github.com/spendlog/spendlog/internal/repository"
	"github.com/spendlog/spendlog/internal/service"
)

type summaryOptions struct {
	email    string
	category string
	tz       string
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's expense totals",
		Long: `Print the total, per-category and per-month breakdown of one user's
expenses, as the dashboard shows them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "user email")
	cmd.Flags().StringVar(&opts.category, "category", aggregate.AllCategories, "category filter")
	cmd.Flags().StringVar(&opts.tz, "tz", "UTC", "IANA time zone for month boundaries")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

type summaryResult struct {
	Email    string            `json:"email" yaml:"email"`
	Category string            `json:"category" yaml:"category"`
	Summary  aggregate.Summary `json:"summary" yaml:"summary"`
}

func runSummary(cmd *cobra.Command, rootOpts *RootOptions, opts *summaryOptions) error {
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return fmt.Errorf("unknown time zone %q", opts.tz)
	}

	store, err := backend.Open(cmd.Context(), rootOpts.storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetUserByEmail(cmd.Context(), opts.email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("no user with email %s", opts.email)
		}
		return err
	}

	svc := service.NewExpenseService(store, nil, discardLogger())
	summary, err := svc.Summary(cmd.Context(), user.ID, opts.category, loc)
	if err != nil {
		return err
	}

	out := newFormatter(rootOpts.Format, cmd.OutOrStdout())
	if ok, err := out.Structured(summaryResult{Email: user.Email, Category: opts.category, Summary: *summary}); ok {
		return err
	}

	out.Printf("%s: %d expenses, total %s\n", user.Email, summary.Count, out.Money(summary.Total))
	if len(summary.Categories) > 0 {
		out.Fprintln("By category:")
		for _, c := range summary.Categories {
			out.Printf("  %-10s %12s\n", c.Category, out.Money(c.Amount))
		}
	}
	if len(summary.Monthly) > 0 {
		out.Fprintln("By month:")
		for _, m := range summary.Monthly {
			out.Printf("  %-10s %12s\n", m.Month, out.Money(m.Amount))
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
