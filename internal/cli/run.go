package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/telemetry"
)

// TriggerCLI — источник run'ов, запущенных из командной строки.
const TriggerCLI = "cli"

// runFlags — флаги фильтрации, общие для run и plan.
type runFlags struct {
	skipGroups []string
	onlyGroups []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.skipGroups, "skip-group", nil, "Skip tasks of this group (repeatable)")
	cmd.Flags().StringSliceVar(&f.onlyGroups, "only-group", nil, "Run only tasks of this group (repeatable)")
}

// NewRunCmd создаёт команду run: запуск рабочего окружения.
func NewRunCmd(app *App) *cobra.Command {
	var flags runFlags
	var dryRun bool
	var textfile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch all eligible tasks in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			e, err := app.newEnv(ctx, cfg, envOptions{notifications: !dryRun})
			if err != nil {
				return err
			}
			defer e.Close()

			req := e.request(TriggerCLI)
			req.SkipGroups = flags.skipGroups
			req.OnlyGroups = flags.onlyGroups
			req.DryRun = dryRun

			report, err := e.orch.Run(ctx, req)
			if err != nil {
				return err
			}

			app.Output().Report(report)

			if textfile != "" && !dryRun {
				if err := telemetry.WriteTextfile(textfile, e.registry); err != nil {
					e.logger.Warn("failed to write metrics textfile", "path", textfile, "error", err)
				}
			}

			if !report.DryRun && !report.Success() {
				return ErrRunFailed
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without launching anything")
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "Write run metrics to a node-exporter textfile")

	return cmd
}

// NewPlanCmd создаёт команду plan: решения по условиям и порядок запуска.
func NewPlanCmd(app *App) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which tasks would run and in what order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			e, err := app.newEnv(ctx, cfg, envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			req := e.request(TriggerCLI)
			req.SkipGroups = flags.skipGroups
			req.OnlyGroups = flags.onlyGroups

			report, err := e.orch.Plan(ctx, req)
			if err != nil {
				return err
			}

			app.Output().Report(report)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// NewValidateCmd создаёт команду validate: проверка конфигурации.
func NewValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and task graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			out := app.Output()
			tasks := cfg.DomainTasks()
			enabled := 0
			for i := range tasks {
				if tasks[i].Enabled {
					enabled++
				}
			}

			out.Print(
				[]string{"CONFIG", "PROFILE", "TASKS", "ENABLED"},
				[][]string{{cfg.Path, profileName(cfg.Profile), itoa(len(tasks)), itoa(enabled)}},
				map[string]any{"config": cfg.Path, "profile": cfg.Profile, "tasks": len(tasks), "enabled": enabled, "valid": true},
			)
			out.Success("Configuration is valid")
			return nil
		},
	}
}

// taskNames возвращает имена задач.
func taskNames(tasks []domain.Task) []string {
	names := make([]string, len(tasks))
	for i := range tasks {
		names[i] = tasks[i].Name
	}
	return names
}
