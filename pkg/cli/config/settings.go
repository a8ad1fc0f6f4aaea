package config

import (
	"strings"

	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/infra/settings"
	"github.com/urfave/cli/v3"
)

// SettingsFile holds the location of the persisted settings
type SettingsFile struct {
	Path string
}

// Flags returns CLI flags for the settings file location
func (c *SettingsFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "settings",
			Usage:       "Settings file path (default: <user config dir>/smodinst/settings.toml)",
			Destination: &c.Path,
			Sources:     cli.EnvVars("SMODINST_SETTINGS"),
		},
	}
}

// Configure returns the settings store for the configured path
func (c *SettingsFile) Configure() (*settings.TOMLStore, error) {
	path := strings.TrimSpace(c.Path)
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return settings.NewTOMLStore(path), nil
}

// SettingsUpdate holds flags of the settings set command
type SettingsUpdate struct {
	ToolPath    string
	Destination string
	Overwrite   bool
}

// Flags returns CLI flags for updating persisted settings
func (c *SettingsUpdate) Flags() []cli.Flag {
	return settingsFlags(&c.ToolPath, &c.Destination, &c.Overwrite)
}

// Apply overlays explicitly set flags on top of base
func (c *SettingsUpdate) Apply(cmd *cli.Command, base model.Settings) model.Settings {
	return mergeShared(cmd, base, c.ToolPath, c.Destination, c.Overwrite)
}
