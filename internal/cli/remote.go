package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/launchpad/internal/api"
)

// DefaultAPIURL — адрес API демона по умолчанию.
const DefaultAPIURL = "http://127.0.0.1:7878"

// NewRemoteCmd создаёт группу команд для работы с запущенным демоном.
func NewRemoteCmd(app *App) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Talk to a running launchpad daemon",
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", DefaultAPIURL, "Daemon API URL")

	clientFn := func() *Client { return NewClient(apiURL) }

	cmd.AddCommand(
		newRemoteStatusCmd(app, clientFn),
		newRemoteRunCmd(app, clientFn),
		newRemoteHistoryCmd(app, clientFn),
	)

	return cmd
}

func newRemoteStatusCmd(app *App, clientFn func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run and the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := clientFn()
			out := app.Output()

			sched, err := client.Schedule(ctx)
			if err != nil {
				return err
			}

			cur, err := client.Current(ctx)
			if err != nil && !errors.Is(err, ErrNoRunInProgress) {
				return err
			}

			if app.JSON {
				out.JSON(map[string]any{"schedule": sched, "current": cur})
				return nil
			}

			state := "idle"
			current := ""
			if cur != nil {
				state = "running"
				current = cur.CurrentTask
			}
			out.Print(
				[]string{"STATE", "CURRENT TASK", "SCHEDULE", "NEXT RUN", "LAST RUN"},
				[][]string{{state, current, sched.Expr, formatTime(sched.NextRun), formatTime(sched.LastRun)}},
				nil,
			)
			return nil
		},
	}
}

func newRemoteRunCmd(app *App, clientFn func() *Client) *cobra.Command {
	var flags runFlags
	var wait bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a run on the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := clientFn().StartRun(cmd.Context(), api.CreateRunRequest{
				SkipGroups: flags.skipGroups,
				OnlyGroups: flags.onlyGroups,
				DryRun:     dryRun,
				Wait:       wait,
			})
			if err != nil {
				return err
			}

			out := app.Output()
			if report == nil {
				out.Success("Run accepted; follow it with `launchpad remote status`")
				return nil
			}

			if app.JSON {
				out.JSON(report)
			} else {
				rows := make([][]string, len(report.Outcomes))
				for i := range report.Outcomes {
					oc := &report.Outcomes[i]
					rows[i] = []string{oc.Task, oc.Group, out.status(oc.Status), outcomeDetail(oc)}
				}
				out.Table([]string{"TASK", "GROUP", "STATUS", "DETAIL"}, rows)
			}

			if !report.DryRun && !report.Success {
				return fmt.Errorf("%w: %d error(s)", ErrRunFailed, len(report.Errors))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the run to finish and print the report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only plan the run")

	return cmd
}

func newRemoteHistoryCmd(app *App, clientFn func() *Client) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show run history from the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := clientFn().ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			app.Output().History(records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")

	return cmd
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
