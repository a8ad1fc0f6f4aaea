package archive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
)

// Flavor selects the command line dialect of the archive tool
type Flavor string

const (
	FlavorSevenZip Flavor = "7z"
	FlavorUnzip    Flavor = "unzip"
	FlavorTar      Flavor = "tar"
)

// DetectFlavor picks the dialect from the executable's base name.
// Unknown names are treated as 7-Zip compatible.
func DetectFlavor(toolPath string) Flavor {
	// Both separators are accepted so Windows paths resolve on any host
	base := toolPath
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")

	switch base {
	case "unzip":
		return FlavorUnzip
	case "tar", "bsdtar", "gtar":
		return FlavorTar
	default:
		return FlavorSevenZip
	}
}

// BuildArgs returns the extract-to-directory arguments for the given flavor
func BuildArgs(flavor Flavor, archivePath, destDir string) []string {
	switch flavor {
	case FlavorUnzip:
		return []string{"-o", "-q", archivePath, "-d", destDir}
	case FlavorTar:
		return []string{"-xf", archivePath, "-C", destDir}
	default:
		return []string{"x", "-y", "-bd", "-o" + destDir, archivePath}
	}
}

// Extractor runs an external archive tool against one package at a time
type Extractor struct {
	toolPath string
	flavor   Flavor
	runner   CommandRunner
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	readDir  func(string) ([]os.DirEntry, error)
	goos     string
}

// Option is a functional option for Extractor
type Option func(*Extractor)

// WithRunner replaces the process runner
func WithRunner(r CommandRunner) Option {
	return func(x *Extractor) {
		x.runner = r
	}
}

// WithLookPath replaces exec.LookPath for bare tool names
func WithLookPath(f func(string) (string, error)) Option {
	return func(x *Extractor) {
		x.lookPath = f
	}
}

// WithFlavor forces a command line dialect instead of detecting it
func WithFlavor(f Flavor) Option {
	return func(x *Extractor) {
		x.flavor = f
	}
}

// New creates an Extractor for toolPath
func New(toolPath string, opts ...Option) *Extractor {
	x := &Extractor{
		toolPath: strings.TrimSpace(toolPath),
		runner:   &ExecRunner{},
		lookPath: exec.LookPath,
		stat:     os.Stat,
		readDir:  os.ReadDir,
		goos:     runtime.GOOS,
	}
	x.flavor = DetectFlavor(x.toolPath)

	for _, opt := range opts {
		opt(x)
	}
	return x
}

// NewFactory returns an ExtractorFactory that applies opts to every Extractor it builds
func NewFactory(opts ...Option) interfaces.ExtractorFactory {
	return func(toolPath string) (interfaces.Extractor, error) {
		if strings.TrimSpace(toolPath) == "" {
			return nil, goerr.New("archive tool path is not set", goerr.T(types.ErrTagInvalidConfig))
		}
		return New(toolPath, opts...), nil
	}
}

// Extract runs the tool to unpack pkg into destDir
func (x *Extractor) Extract(ctx context.Context, pkg model.Package, destDir string) (*model.CommandLog, error) {
	logger := ctxlog.From(ctx)

	tool, err := x.resolveTool()
	if err != nil {
		return nil, err
	}

	args := BuildArgs(x.flavor, pkg.Path, destDir)
	logger.Debug("Running archive tool",
		"tool", tool,
		"args", args,
		"package", pkg.Name,
	)

	res, runErr := x.runner.Run(ctx, tool, args...)
	log := &model.CommandLog{
		Command:  tool,
		Args:     args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return log, goerr.Wrap(ctxErr, "extraction canceled",
				goerr.T(types.ErrTagCanceled),
				goerr.V("package", pkg.Path),
			)
		}

		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && isStartFailure(runErr) {
			return log, goerr.Wrap(runErr, "archive tool could not be started",
				goerr.T(types.ErrTagToolMissing),
				goerr.V("tool", tool),
			)
		}

		return log, goerr.Wrap(runErr, "archive tool exited with an error",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("tool", tool),
			goerr.V("package", pkg.Path),
			goerr.V("exit_code", log.ExitCode),
		)
	}

	entries, err := x.readDir(destDir)
	if err != nil {
		return log, goerr.Wrap(err, "failed to read extraction directory",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("dir", destDir),
		)
	}
	if len(entries) == 0 {
		return log, goerr.New("archive produced no files",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("package", pkg.Path),
		)
	}

	return log, nil
}

// resolveTool turns the configured tool into an executable path
func (x *Extractor) resolveTool() (string, error) {
	if x.toolPath == "" {
		return "", goerr.New("archive tool path is not set", goerr.T(types.ErrTagToolMissing))
	}

	// A bare command name is searched on PATH
	if !strings.ContainsAny(x.toolPath, `/\`) {
		p, err := x.lookPath(x.toolPath)
		if err != nil {
			return "", goerr.Wrap(err, "archive tool not found on PATH",
				goerr.T(types.ErrTagToolMissing),
				goerr.V("tool", x.toolPath),
			)
		}
		return p, nil
	}

	info, err := x.stat(x.toolPath)
	if err != nil {
		return "", goerr.Wrap(err, "archive tool not found",
			goerr.T(types.ErrTagToolMissing),
			goerr.V("tool", x.toolPath),
		)
	}
	if !info.Mode().IsRegular() {
		return "", goerr.New("archive tool is not a regular file",
			goerr.T(types.ErrTagToolMissing),
			goerr.V("tool", x.toolPath),
		)
	}
	if x.goos != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", goerr.New("archive tool is not executable",
			goerr.T(types.ErrTagToolMissing),
			goerr.V("tool", x.toolPath),
		)
	}

	return x.toolPath, nil
}

func isStartFailure(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}
