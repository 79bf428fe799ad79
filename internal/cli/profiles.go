package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/launchpad/internal/config"
)

// NewProfilesCmd создаёт команду profiles: список доступных профилей.
func NewProfilesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configuration profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Профиль здесь не применяется: нужен только каталог профилей.
			cfg, err := config.Load(app.ConfigPath, "")
			if err != nil {
				return err
			}

			dir := config.ProfilesDir(cfg.Path, cfg.General.ProfilesDir)
			names, err := config.ListProfiles(dir)
			if err != nil {
				return err
			}

			out := app.Output()
			if len(names) == 0 && !app.JSON {
				out.Warn("No profiles in " + dir)
				return nil
			}

			rows := make([][]string, len(names))
			for i, name := range names {
				active := ""
				if name == app.Profile {
					active = "*"
				}
				rows[i] = []string{name, active}
			}
			if names == nil {
				names = []string{}
			}
			out.Print([]string{"PROFILE", "ACTIVE"}, rows, names)
			return nil
		},
	}
}

func profileName(p string) string {
	if p == "" {
		return "default"
	}
	return p
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
