package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/smodinst/pkg/cli/config"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg   config.Logger
		settingsCfg config.SettingsFile
		logger      *slog.Logger
	)

	app := &cli.Command{
		Name:    types.AppName,
		Usage:   "Install .smod mod packages into a mod loader directory",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), settingsCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdInstall(&settingsCfg),
			cmdSettings(&settingsCfg),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
