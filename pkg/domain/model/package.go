package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// PackageExt is the file extension of installable mod packages
const PackageExt = ".smod"

// Package is a reference to one archive file selected for installation
type Package struct {
	Path string `json:"path"` // Absolute path to the archive
	Name string `json:"name"` // Base name of the archive file
	Size int64  `json:"size"` // File size in bytes
}

// NewPackage resolves path to an absolute location and verifies it is a regular file
func NewPackage(path string) (Package, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Package{}, goerr.Wrap(err, "failed to resolve package path", goerr.V("path", path))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Package{}, goerr.Wrap(err, "failed to stat package", goerr.V("path", abs))
	}
	if !info.Mode().IsRegular() {
		return Package{}, goerr.New("package is not a regular file", goerr.V("path", abs))
	}

	return Package{
		Path: abs,
		Name: filepath.Base(abs),
		Size: info.Size(),
	}, nil
}

// CommandLog captures one external tool invocation
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty"`
}

// ExtractionResult is the temporary directory holding one extracted package
type ExtractionResult struct {
	Package    Package
	TempDir    string
	CommandLog *CommandLog
}

// Marker is the file that identifies a package's logical install name
type Marker struct {
	Path    string // Absolute path inside the extraction directory
	RelPath string // Slash separated path relative to the extraction root
	Name    string // Sanitized install name
}

// maxDiagnosticLen bounds the tool output kept in outcomes and reports
const maxDiagnosticLen = 4096

// Diagnostic returns the tool's stderr followed by stdout, trimmed and bounded
func (l *CommandLog) Diagnostic() string {
	if l == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	for _, s := range []string{l.Stderr, l.Stdout} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	out := strings.Join(parts, "\n")
	if len(out) > maxDiagnosticLen {
		out = out[:maxDiagnosticLen] + "...(truncated)"
	}
	return out
}
