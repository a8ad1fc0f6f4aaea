package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"github.com/m-mizutani/smodinst/pkg/utils/fsx"
	"github.com/pelletier/go-toml/v2"
)

const fileName = "settings.toml"

// DefaultPath returns <user config dir>/smodinst/settings.toml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve user config directory")
	}
	return filepath.Join(dir, types.AppName, fileName), nil
}

// TOMLStore persists settings in a single TOML file
type TOMLStore struct {
	path string
}

var _ interfaces.SettingsStore = (*TOMLStore)(nil)

// NewTOMLStore creates a TOML-backed settings store
func NewTOMLStore(path string) *TOMLStore {
	return &TOMLStore{path: path}
}

// Path returns the settings file location
func (s *TOMLStore) Path() string {
	return s.path
}

// Load reads settings from disk. A missing file yields defaults, and keys
// absent from the file keep their default values.
func (s *TOMLStore) Load() (model.Settings, error) {
	cfg := model.DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return model.Settings{}, goerr.Wrap(err, "failed to read settings file", goerr.V("path", s.path))
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return model.Settings{}, goerr.Wrap(err, "failed to parse settings file",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("path", s.path),
		)
	}
	if cfg.MarkerPolicy != "" && !cfg.MarkerPolicy.IsValid() {
		return model.Settings{}, goerr.New("unknown marker policy in settings file",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("path", s.path),
			goerr.V("policy", cfg.MarkerPolicy),
		)
	}

	return cfg, nil
}

// Save writes settings atomically, creating parent directories as needed
func (s *TOMLStore) Save(cfg model.Settings) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to encode settings")
	}

	if err := fsx.WriteFileAtomic(filepath.Dir(s.path), filepath.Base(s.path), data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write settings file", goerr.V("path", s.path))
	}
	return nil
}
