package archive_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/m-mizutani/smodinst/pkg/infra/archive"
)

type fakeRunner struct {
	run   func(ctx context.Context, name string, args ...string) (archive.CommandResult, error)
	calls [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.run(ctx, name, args...)
}

func foundOnPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func TestDetectFlavor(t *testing.T) {
	testCases := map[string]archive.Flavor{
		"7z":                    archive.FlavorSevenZip,
		"/usr/bin/7za":          archive.FlavorSevenZip,
		`C:\Tools\7-Zip\7z.exe`: archive.FlavorSevenZip,
		"unzip":                 archive.FlavorUnzip,
		"/usr/bin/tar":          archive.FlavorTar,
		"bsdtar":                archive.FlavorTar,
		`C:\Windows\tar.EXE`:    archive.FlavorTar,
		"something-else":        archive.FlavorSevenZip,
	}
	for tool, want := range testCases {
		t.Run(tool, func(t *testing.T) {
			gt.Equal(t, archive.DetectFlavor(tool), want)
		})
	}
}

func TestBuildArgs(t *testing.T) {
	gt.Equal(t, archive.BuildArgs(archive.FlavorSevenZip, "a.smod", "/tmp/x"), []string{"x", "-y", "-bd", "-o/tmp/x", "a.smod"})
	gt.Equal(t, archive.BuildArgs(archive.FlavorUnzip, "a.smod", "/tmp/x"), []string{"-o", "-q", "a.smod", "-d", "/tmp/x"})
	gt.Equal(t, archive.BuildArgs(archive.FlavorTar, "a.smod", "/tmp/x"), []string{"-xf", "a.smod", "-C", "/tmp/x"})
}

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	pkg := model.Package{Path: "/mods/MyTestMod.smod", Name: "MyTestMod.smod"}

	t.Run("success", func(t *testing.T) {
		dest := t.TempDir()
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			gt.NoError(t, os.WriteFile(filepath.Join(dest, "MyTestMod.uplugin"), []byte("{}"), 0o644))
			return archive.CommandResult{Stdout: "Everything is Ok"}, nil
		}}

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(foundOnPath))
		log, err := x.Extract(ctx, pkg, dest)
		gt.NoError(t, err)
		gt.Equal(t, log.Command, "/usr/bin/7z")
		gt.Equal(t, log.ExitCode, 0)
		gt.Equal(t, runner.calls, [][]string{{"/usr/bin/7z", "x", "-y", "-bd", "-o" + dest, pkg.Path}})
	})

	t.Run("non-zero exit", func(t *testing.T) {
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			return archive.CommandResult{Stderr: "ERROR: Data Error", ExitCode: 2}, errors.New("exit status 2")
		}}

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(foundOnPath))
		log, err := x.Extract(ctx, pkg, t.TempDir())
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagExtractionFailed))
		gt.Value(t, log).NotNil()
		gt.Equal(t, log.ExitCode, 2)
		gt.String(t, log.Diagnostic()).Contains("Data Error")
	})

	t.Run("tool exits cleanly but writes nothing", func(t *testing.T) {
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			return archive.CommandResult{}, nil
		}}

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(foundOnPath))
		_, err := x.Extract(ctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagExtractionFailed))
	})

	t.Run("tool not on PATH", func(t *testing.T) {
		runner := &fakeRunner{}
		lookPath := func(string) (string, error) { return "", exec.ErrNotFound }

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(lookPath))
		log, err := x.Extract(ctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagToolMissing))
		gt.Value(t, log).Nil()
		gt.Equal(t, len(runner.calls), 0)
	})

	t.Run("tool path does not exist", func(t *testing.T) {
		x := archive.New(filepath.Join(t.TempDir(), "7z"), archive.WithRunner(&fakeRunner{}))
		_, err := x.Extract(ctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagToolMissing))
	})

	t.Run("tool path is a directory", func(t *testing.T) {
		x := archive.New(t.TempDir()+string(filepath.Separator), archive.WithRunner(&fakeRunner{}))
		_, err := x.Extract(ctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagToolMissing))
	})

	t.Run("process cannot start", func(t *testing.T) {
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			return archive.CommandResult{ExitCode: -1}, os.ErrPermission
		}}

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(foundOnPath))
		_, err := x.Extract(ctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagToolMissing))
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			cancel()
			return archive.CommandResult{ExitCode: -1}, errors.New("signal: killed")
		}}

		x := archive.New("7z", archive.WithRunner(runner), archive.WithLookPath(foundOnPath))
		_, err := x.Extract(cctx, pkg, t.TempDir())
		gt.True(t, goerr.HasTag(err, types.ErrTagCanceled))
	})

	t.Run("forced flavor", func(t *testing.T) {
		dest := t.TempDir()
		runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (archive.CommandResult, error) {
			gt.NoError(t, os.WriteFile(filepath.Join(dest, "a"), nil, 0o644))
			return archive.CommandResult{}, nil
		}}

		x := archive.New("my-extractor", archive.WithRunner(runner), archive.WithLookPath(foundOnPath), archive.WithFlavor(archive.FlavorTar))
		_, err := x.Extract(ctx, pkg, dest)
		gt.NoError(t, err)
		gt.Equal(t, runner.calls[0][1:], []string{"-xf", pkg.Path, "-C", dest})
	})
}

func TestNewFactory(t *testing.T) {
	factory := archive.NewFactory()

	_, err := factory("  ")
	gt.True(t, goerr.HasTag(err, types.ErrTagInvalidConfig))

	x, err := factory("7z")
	gt.NoError(t, err)
	gt.Value(t, x).NotNil()
}
