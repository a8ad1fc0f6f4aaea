package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Install holds flags of the install command. Values only override the
// settings file when the flag was given explicitly (or via environment).
type Install struct {
	ToolPath     string
	Destination  string
	Overwrite    bool
	MarkerPolicy string
	TempDir      string
	JSON         bool
	NoSave       bool
}

const (
	flagTool         = "tool"
	flagDest         = "dest"
	flagOverwrite    = "overwrite"
	flagWorkers      = "workers"
	flagMarkerExt    = "marker-ext"
	flagMarkerPolicy = "marker-policy"
	flagTempDir      = "temp-dir"
)

// Flags returns CLI flags for the install command
func (c *Install) Flags() []cli.Flag {
	return append(settingsFlags(&c.ToolPath, &c.Destination, &c.Overwrite),
		&cli.StringSliceFlag{
			Name:    flagMarkerExt,
			Usage:   "Marker file extension identifying the install name (repeatable)",
			Sources: cli.EnvVars("SMODINST_MARKER_EXT"),
		},
		&cli.StringFlag{
			Name:        flagMarkerPolicy,
			Usage:       "What to do when a package has several marker files (reject, first)",
			Destination: &c.MarkerPolicy,
			Sources:     cli.EnvVars("SMODINST_MARKER_POLICY"),
		},
		&cli.StringFlag{
			Name:        flagTempDir,
			Usage:       "Directory for temporary extraction (default: system temp directory)",
			Destination: &c.TempDir,
			Sources:     cli.EnvVars("SMODINST_TEMP_DIR"),
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Write the batch report to stdout as JSON",
			Destination: &c.JSON,
		},
		&cli.BoolFlag{
			Name:        "no-save",
			Usage:       "Do not remember the destination and tool in the settings file",
			Destination: &c.NoSave,
		},
	)
}

// settingsFlags are shared by install and settings set
func settingsFlags(tool, dest *string, overwrite *bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        flagTool,
			Usage:       "Path or command name of the archive tool (7z, unzip, tar)",
			Destination: tool,
			Sources:     cli.EnvVars("SMODINST_TOOL"),
		},
		&cli.StringFlag{
			Name:        flagDest,
			Aliases:     []string{"d"},
			Usage:       "Destination root; each mod gets its own subfolder",
			Destination: dest,
			Sources:     cli.EnvVars("SMODINST_DEST"),
		},
		&cli.BoolFlag{
			Name:        flagOverwrite,
			Usage:       "Replace an already installed mod folder",
			Destination: overwrite,
			Sources:     cli.EnvVars("SMODINST_OVERWRITE"),
		},
		&cli.IntFlag{
			Name:    flagWorkers,
			Usage:   "Number of packages processed in parallel (1-8)",
			Sources: cli.EnvVars("SMODINST_WORKERS"),
		},
	}
}

// Merge overlays explicitly set flags on top of base and validates the result
func (c *Install) Merge(cmd *cli.Command, base model.Settings) (model.Settings, error) {
	s := mergeShared(cmd, base, c.ToolPath, c.Destination, c.Overwrite)

	if cmd.IsSet(flagMarkerExt) {
		s.MarkerExtensions = cmd.StringSlice(flagMarkerExt)
	}
	if cmd.IsSet(flagMarkerPolicy) {
		s.MarkerPolicy = model.MarkerPolicy(strings.ToLower(strings.TrimSpace(c.MarkerPolicy)))
	}
	if cmd.IsSet(flagTempDir) {
		s.TempDir = strings.TrimSpace(c.TempDir)
	}

	if s.MarkerPolicy != "" && !s.MarkerPolicy.IsValid() {
		return model.Settings{}, goerr.New("marker policy must be reject or first",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("policy", s.MarkerPolicy),
		)
	}

	return s.WithDefaults(), nil
}

func mergeShared(cmd *cli.Command, base model.Settings, tool, dest string, overwrite bool) model.Settings {
	s := base
	if cmd.IsSet(flagTool) {
		s.ToolPath = strings.TrimSpace(tool)
	}
	if cmd.IsSet(flagDest) {
		s.DestinationRoot = strings.TrimSpace(dest)
	}
	if cmd.IsSet(flagOverwrite) {
		s.Overwrite = overwrite
	}
	if cmd.IsSet(flagWorkers) {
		s.Workers = int(cmd.Int(flagWorkers))
	}
	return s
}
