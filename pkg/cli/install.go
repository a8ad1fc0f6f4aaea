package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/cli/config"
	"github.com/m-mizutani/smodinst/pkg/controller/console"
	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/m-mizutani/smodinst/pkg/infra/archive"
	"github.com/m-mizutani/smodinst/pkg/usecase"
	"github.com/m-mizutani/smodinst/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdInstall(settingsCfg *config.SettingsFile) *cli.Command {
	var installCfg config.Install

	return &cli.Command{
		Name:      "install",
		Aliases:   []string{"i"},
		Usage:     "Install one or more .smod packages",
		ArgsUsage: "PACKAGE.smod|DIR...",
		Flags:     installCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := settingsCfg.Configure()
			if err != nil {
				return err
			}
			saved, err := store.Load()
			if err != nil {
				return err
			}
			settings, err := installCfg.Merge(c, saved)
			if err != nil {
				return err
			}

			packages, err := collectPackages(c.Args().Slice())
			if err != nil {
				return err
			}

			batch := usecase.NewBatch(archive.NewFactory())
			report, err := runBatch(ctx, batch, settings, packages, os.Stderr)
			if err != nil {
				return err
			}

			if installCfg.JSON {
				if err := console.WriteJSON(os.Stdout, report); err != nil {
					return err
				}
			} else if err := console.WriteSummary(os.Stdout, report, console.IsTerminal(os.Stdout)); err != nil {
				return err
			}

			if !installCfg.NoSave {
				rememberLastUsed(ctx, store, saved, settings)
			}

			if report.HasFailures() {
				return goerr.New("some packages failed to install",
					goerr.V("failed", report.Summary.Failed),
					goerr.V("total", report.Summary.Total),
				)
			}
			return nil
		},
	}
}

// runBatch runs the batch off the calling goroutine and cancels it on
// SIGINT or SIGTERM. It always waits for the batch to return so that
// temporary directories are cleaned up before exit.
func runBatch(ctx context.Context, uc interfaces.BatchUseCase, settings model.Settings, packages []model.Package, progressOut io.Writer) (*model.BatchReport, error) {
	logger := ctxlog.From(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var report *model.BatchReport
	done := async.Run(ctx, func(ctx context.Context) error {
		var err error
		report, err = uc.Run(ctx, settings, packages, console.NewProgress(progressOut))
		return err
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-done:
		return report, err
	case sig := <-sigChan:
		logger.Warn("Signal received, canceling batch...", slog.Any("signal", sig))
		cancel()
	}

	if err := <-done; err != nil {
		return nil, err
	}
	return report, nil
}

// collectPackages resolves the arguments into packages. A directory
// argument contributes its .smod files in name order.
func collectPackages(args []string) ([]model.Package, error) {
	if len(args) == 0 {
		return nil, goerr.New("no package given", goerr.T(types.ErrTagInvalidConfig))
	}

	var packages []model.Package
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, goerr.Wrap(err, "package not found",
				goerr.T(types.ErrTagInvalidConfig),
				goerr.V("path", arg),
			)
		}

		if !info.IsDir() {
			pkg, err := model.NewPackage(arg)
			if err != nil {
				return nil, err
			}
			packages = append(packages, pkg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read package directory", goerr.V("path", arg))
		}
		var names []string
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), model.PackageExt) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			pkg, err := model.NewPackage(filepath.Join(arg, name))
			if err != nil {
				return nil, err
			}
			packages = append(packages, pkg)
		}
	}

	if len(packages) == 0 {
		return nil, goerr.New("no .smod package found", goerr.T(types.ErrTagInvalidConfig), goerr.V("args", args))
	}
	return packages, nil
}

// rememberLastUsed persists the destination root, tool and overwrite
// preference when they changed. Overwrite only differs from the saved value
// when --overwrite was given explicitly.
// A failure to save does not fail the install.
func rememberLastUsed(ctx context.Context, store interfaces.SettingsStore, saved, used model.Settings) {
	dest := used.DestinationRoot
	if abs, err := filepath.Abs(dest); err == nil {
		dest = abs
	}
	if saved.DestinationRoot == dest && saved.ToolPath == used.ToolPath && saved.Overwrite == used.Overwrite {
		return
	}

	next := saved
	next.DestinationRoot = dest
	next.ToolPath = used.ToolPath
	next.Overwrite = used.Overwrite
	if err := store.Save(next); err != nil {
		ctxlog.From(ctx).Warn("Failed to save settings", "path", store.Path(), "error", err)
		return
	}
	ctxlog.From(ctx).Debug("Settings saved", "path", store.Path())
}
