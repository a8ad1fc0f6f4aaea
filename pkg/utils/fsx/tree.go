package fsx

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// CopyStats summarizes a CopyTree run
type CopyStats struct {
	Files    int
	Dirs     int
	Symlinks int
	Skipped  int
	Bytes    int64
}

// CopyTree copies the contents of src into dst, which must already exist.
// src itself is not recreated inside dst. Regular files keep their bytes and
// permission bits, symlinks are recreated as symlinks and other special files
// are skipped.
func CopyTree(ctx context.Context, src, dst string) (CopyStats, error) {
	logger := ctxlog.From(ctx)
	var stats CopyStats

	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return goerr.Wrap(walkErr, "failed to walk source tree", goerr.V("path", path))
		}
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "copy interrupted")
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return goerr.Wrap(err, "failed to compute relative path", goerr.V("path", path))
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return goerr.Wrap(err, "failed to stat source entry", goerr.V("path", path))
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			// Owner write is kept so the directory can be filled
			if err := os.Mkdir(target, mode.Perm()|0o700); err != nil {
				return goerr.Wrap(err, "failed to create directory", goerr.V("path", target))
			}
			stats.Dirs++

		case mode.IsRegular():
			if err := copyFile(path, target, mode.Perm()); err != nil {
				return goerr.Wrap(err, "failed to copy file",
					goerr.V("src", path),
					goerr.V("dst", target),
				)
			}
			stats.Files++
			stats.Bytes += info.Size()

		case mode&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read symlink", goerr.V("path", path))
			}
			if err := os.Symlink(link, target); err != nil {
				return goerr.Wrap(err, "failed to create symlink",
					goerr.V("path", target),
					goerr.V("link", link),
				)
			}
			stats.Symlinks++

		default:
			logger.Debug("Skipping special file", "path", path, "mode", mode.String())
			stats.Skipped++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}
