package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/m-mizutani/smodinst/pkg/utils/fsx"
)

const (
	stagingPrefix = ".smodinst-stage-"
	backupPrefix  = ".smodinst-old-"
)

// InstallRequest describes one extracted tree to materialize under a destination root
type InstallRequest struct {
	SourceDir       string
	Name            string
	DestinationRoot string
	Overwrite       bool
}

// InstallResult describes a completed install
type InstallResult struct {
	Destination string
	Replaced    bool
	Stats       fsx.CopyStats
}

// Installer copies extracted trees into <root>/<name>. The tree is staged in
// a sibling directory and renamed into place so that a failed copy never
// leaves a partially written or mixed install behind.
type Installer struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	rename func(src, dst string) error
}

// InstallerOption is a functional option for Installer
type InstallerOption func(*Installer)

// WithRename replaces fsx.Rename for every move the installer performs
func WithRename(f func(src, dst string) error) InstallerOption {
	return func(i *Installer) {
		i.rename = f
	}
}

// NewInstaller creates an Installer
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		locks:  make(map[string]*sync.Mutex),
		rename: fsx.Rename,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// lockName serializes installs targeting the same destination. Keys are
// case-folded because the destination filesystem may be case-insensitive.
func (i *Installer) lockName(dest string) func() {
	key := strings.ToLower(dest)

	i.mu.Lock()
	l, ok := i.locks[key]
	if !ok {
		l = &sync.Mutex{}
		i.locks[key] = l
	}
	i.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Install materializes req.SourceDir's contents at <req.DestinationRoot>/<req.Name>.
// An existing destination with Overwrite unset fails with ErrTagAlreadyExists
// and leaves the filesystem untouched.
func (i *Installer) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	logger := ctxlog.From(ctx)

	dest := filepath.Join(req.DestinationRoot, req.Name)
	unlock := i.lockName(dest)
	defer unlock()

	exists := false
	info, err := os.Lstat(dest)
	switch {
	case err == nil:
		exists = true
		if !info.IsDir() {
			return nil, goerr.New("destination exists and is not a directory",
				goerr.T(types.ErrTagDestinationIO),
				goerr.V("destination", dest),
			)
		}
		if !req.Overwrite {
			return nil, goerr.New("destination already exists",
				goerr.T(types.ErrTagAlreadyExists),
				goerr.V("destination", dest),
			)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, goerr.Wrap(err, "failed to inspect destination",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("destination", dest),
		)
	}

	staging, err := os.MkdirTemp(req.DestinationRoot, stagingPrefix+"*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create staging directory",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("root", req.DestinationRoot),
		)
	}
	defer func() {
		// Only non-empty when the rename into place did not happen
		if staging != "" {
			if err := os.RemoveAll(staging); err != nil {
				logger.Warn("Failed to remove staging directory", "path", staging, "error", err)
			}
		}
	}()

	if err := os.Chmod(staging, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to set staging directory permissions",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("path", staging),
		)
	}

	stats, err := fsx.CopyTree(ctx, req.SourceDir, staging)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, goerr.Wrap(err, "install canceled", goerr.T(types.ErrTagCanceled))
		}
		return nil, goerr.Wrap(err, "failed to copy package contents",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("destination", dest),
		)
	}

	logger.Debug("Staged package contents",
		"staging", staging,
		"files", stats.Files,
		"dirs", stats.Dirs,
		"bytes", stats.Bytes,
	)

	if !exists {
		if err := i.rename(staging, dest); err != nil {
			return nil, goerr.Wrap(err, "failed to move staged contents into place",
				goerr.T(types.ErrTagDestinationIO),
				goerr.V("destination", dest),
				goerr.V("cross_device", fsx.IsCrossDevice(err)),
			)
		}
		staging = ""
		return &InstallResult{Destination: dest, Stats: stats}, nil
	}

	backup := filepath.Join(req.DestinationRoot, backupPrefix+uuid.NewString())
	if err := i.rename(dest, backup); err != nil {
		return nil, goerr.Wrap(err, "failed to move existing install aside",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("destination", dest),
		)
	}

	if err := i.rename(staging, dest); err != nil {
		if rbErr := i.rename(backup, dest); rbErr != nil {
			logger.Error("Failed to restore previous install",
				"destination", dest,
				"backup", backup,
				"error", rbErr,
			)
		}
		return nil, goerr.Wrap(err, "failed to move staged contents into place",
			goerr.T(types.ErrTagDestinationIO),
			goerr.V("destination", dest),
		)
	}
	staging = ""

	if err := os.RemoveAll(backup); err != nil {
		logger.Warn("Failed to remove previous install", "path", backup, "error", err)
	}

	return &InstallResult{Destination: dest, Replaced: true, Stats: stats}, nil
}

// ContentRoot returns the directory whose contents make up the install. An
// archive that wraps everything in a single top-level folder is unwrapped
// one level so the folder is not nested inside <root>/<name>.
func ContentRoot(extracted string) (string, error) {
	entries, err := os.ReadDir(extracted)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read extracted tree",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("dir", extracted),
		)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(extracted, entries[0].Name()), nil
	}
	return extracted, nil
}
