package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd создаёт корневую команду launchpad.
func NewRootCmd(app *App, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "launchpad",
		Short:         "launchpad — start your working environment in one command",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.ConfigPath, "config", "c", "config.yaml", "Path to configuration file")
	flags.StringVar(&app.Profile, "profile", "", "Configuration profile (profiles/<name>.yaml)")
	flags.BoolVar(&app.JSON, "json", false, "Output in JSON format")
	flags.BoolVar(&app.NoColor, "no-color", false, "Disable coloured output")
	flags.StringVar(&app.LogLevel, "log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(
		NewRunCmd(app),
		NewPlanCmd(app),
		NewValidateCmd(app),
		NewHistoryCmd(app),
		NewSummaryCmd(app),
		NewProfilesCmd(app),
		NewConfigCmd(app),
		NewDaemonCmd(app),
		NewEventsCmd(app),
		NewRemoteCmd(app),
	)

	return rootCmd
}

// Execute выполняет командную строку и возвращает код выхода.
func Execute(ctx context.Context, app *App, version string, args []string) int {
	rootCmd := NewRootCmd(app, version)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout())
	rootCmd.SetErr(app.stderr())

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		app.Output().Error(err.Error())
		app.notifyConfigError(ctx, err)
	}
	return ExitCode(err)
}
