package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/repo"
)

// openHistory открывает хранилище истории из конфигурации.
func openHistory(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	return repo.Open(ctx, repo.Options{
		Driver: cfg.History.Driver,
		DSN:    cfg.History.DSN,
		Dir:    cfg.ResolvePath(cfg.History.Dir),
	})
}

// NewHistoryCmd создаёт команду history: последние run'ы.
func NewHistoryCmd(app *App) *cobra.Command {
	var limit int
	var chart bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(ctx, limit)
			if err != nil {
				return err
			}

			out := app.Output()
			if chart && !app.JSON {
				out.Chart(records)
				return nil
			}
			out.History(records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 — all)")
	cmd.Flags().BoolVar(&chart, "chart", false, "Show an ASCII chart of run durations")

	return cmd
}

// NewSummaryCmd создаёт команду summary: статистика по истории.
func NewSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show run statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summary(ctx)
			if err != nil {
				return err
			}

			app.Output().Summary(summary)
			return nil
		},
	}
}
