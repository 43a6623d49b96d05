package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/budget/bot"
	"github.com/m3rciful/budgetbot/budget/model"
	"github.com/m3rciful/budgetbot/budget/sheets"
	corecmd "github.com/m3rciful/budgetbot/core/cmd"
	"github.com/m3rciful/budgetbot/core/logger"
)

const checkTimeout = 30 * time.Second

// Reader is what the self-check reads from the spreadsheet.
type Reader interface {
	Categories(ctx context.Context) ([]string, error)
	Wallets(ctx context.Context) ([]string, error)
	Balances(ctx context.Context) ([]model.WalletBalance, error)
}

func newSheetsCommand(configPath *string) *cobra.Command {
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Spreadsheet utilities",
	}
	sheetsCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Read categories, wallets and balances and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := corecmd.LoadConfig(runnerOptions(*configPath))
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg); err != nil {
				return err
			}
			defer closeLogger(logger.Shutdown, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()
			return Check(ctx, cmd.OutOrStdout(), sheets.NewFromConfig(cfg.Sheets))
		},
	})
	return sheetsCmd
}

// Check prints every list the bot reads and fails on the first read error.
func Check(ctx context.Context, w io.Writer, r Reader) error {
	categories, err := r.Categories(ctx)
	if err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	fmt.Fprintf(w, "Categories (%d): %s\n", len(categories), strings.Join(categories, ", "))

	wallets, err := r.Wallets(ctx)
	if err != nil {
		return fmt.Errorf("wallets: %w", err)
	}
	fmt.Fprintf(w, "Wallets (%d): %s\n", len(wallets), strings.Join(wallets, ", "))

	balances, err := r.Balances(ctx)
	if err != nil {
		return fmt.Errorf("balances: %w", err)
	}
	fmt.Fprintln(w, bot.FormatBalances(balances))
	return nil
}

// closeLogger runs shutdown and reports its error on w.
func closeLogger(shutdown func() error, w io.Writer) {
	if err := shutdown(); err != nil {
		fmt.Fprintf(w, "logger shutdown error: %v\n", err)
	}
}
