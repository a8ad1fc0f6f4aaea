package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
)

// renameFunc is replaceable so tests can simulate rename failures
var renameFunc = os.Rename

// CrossDeviceError reports a rename that failed because source and target are
// on different filesystems
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return "cross-device rename from " + e.Src + " to " + e.Dst + ": " + e.Err.Error()
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomic writes data to dir/name through a temp file in the same
// directory followed by a rename, replacing any existing file
func WriteFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", dir))
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmpName))
	}
	if err := tmp.Chmod(perm); err != nil && runtime.GOOS != "windows" {
		return goerr.Wrap(err, "failed to chmod temp file", goerr.V("path", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return goerr.Wrap(err, "failed to sync temp file", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", tmpName))
	}

	dst := filepath.Join(dir, name)
	if err := Rename(tmpName, dst); err != nil {
		return goerr.Wrap(err, "failed to move temp file into place", goerr.V("path", dst))
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
