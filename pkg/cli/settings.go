package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/cli/config"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

func cmdSettings(settingsCfg *config.SettingsFile) *cli.Command {
	var updateCfg config.SettingsUpdate

	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the persisted settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings file",
				Action: func(ctx context.Context, c *cli.Command) error {
					store, err := settingsCfg.Configure()
					if err != nil {
						return err
					}
					s, err := store.Load()
					if err != nil {
						return err
					}

					raw, err := toml.Marshal(s)
					if err != nil {
						return goerr.Wrap(err, "failed to encode settings")
					}
					fmt.Fprintf(os.Stdout, "# %s\n%s", store.Path(), raw)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Update the persisted settings",
				Flags: updateCfg.Flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					store, err := settingsCfg.Configure()
					if err != nil {
						return err
					}
					s, err := store.Load()
					if err != nil {
						return err
					}

					next := updateCfg.Apply(c, s).WithDefaults()
					if next.ToolPath == "" {
						return goerr.New("tool path must not be empty", goerr.T(types.ErrTagInvalidConfig))
					}
					if err := store.Save(next); err != nil {
						return err
					}
					fmt.Fprintf(os.Stdout, "Saved %s\n", store.Path())
					return nil
				},
			},
		},
	}
}
