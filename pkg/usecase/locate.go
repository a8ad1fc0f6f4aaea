package usecase

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
)

// LocateMarker finds the marker file inside an extracted package tree and
// derives the install name from it.
//
// Matches are ordered by slash separated relative path. With
// MarkerPolicyReject more than one match is an error; with MarkerPolicyFirst
// the first match in that order wins.
func LocateMarker(ctx context.Context, root string, extensions []string, policy model.MarkerPolicy) (*model.Marker, error) {
	logger := ctxlog.From(ctx)

	normalized := NormalizeExtensions(extensions)
	if len(normalized) == 0 {
		return nil, goerr.New("no marker extension configured", goerr.T(types.ErrTagInvalidConfig))
	}
	exts := make(map[string]struct{}, len(normalized))
	for _, ext := range normalized {
		exts[ext] = struct{}{}
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk extracted tree",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("root", root),
		)
	}

	if len(matches) == 0 {
		return nil, goerr.New("no marker file found in package",
			goerr.T(types.ErrTagNoMarkerFound),
			goerr.V("extensions", extensions),
		)
	}

	sort.Strings(matches)
	if len(matches) > 1 {
		if policy != model.MarkerPolicyFirst {
			return nil, goerr.New("package contains more than one marker file",
				goerr.T(types.ErrTagAmbiguousMarker),
				goerr.V("markers", matches),
			)
		}
		logger.Warn("Multiple marker files found, using the first",
			"selected", matches[0],
			"count", len(matches),
		)
	}

	rel := matches[0]
	base := filepath.Base(filepath.FromSlash(rel))
	raw := strings.TrimSuffix(base, filepath.Ext(base))
	name := SanitizeName(raw)
	if name == "" {
		return nil, goerr.New("marker file name yields an empty install name",
			goerr.T(types.ErrTagInvalidName),
			goerr.V("marker", rel),
		)
	}

	return &model.Marker{
		Path:    filepath.Join(root, filepath.FromSlash(rel)),
		RelPath: rel,
		Name:    name,
	}, nil
}

// NormalizeExtensions lower-cases extensions, adds a missing leading dot and
// drops blanks and duplicates
func NormalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	seen := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// reservedNames are device names Windows refuses as path segments
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeName removes characters that are illegal in a path segment on any
// supported platform. The result is empty when nothing usable remains.
func SanitizeName(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		sb.WriteRune(r)
	}

	name := strings.TrimSpace(sb.String())
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return ""
	}

	if _, ok := reservedNames[strings.ToUpper(name)]; ok {
		name += "_"
	}
	return name
}
