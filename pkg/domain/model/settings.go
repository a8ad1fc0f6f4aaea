package model

// MarkerPolicy decides what happens when an archive holds more than one marker file
type MarkerPolicy string

const (
	// MarkerPolicyReject fails the package with ambiguous_marker
	MarkerPolicyReject MarkerPolicy = "reject"
	// MarkerPolicyFirst picks the first marker in lexicographic relative path order
	MarkerPolicyFirst MarkerPolicy = "first"
)

// IsValid reports whether p is a known policy
func (p MarkerPolicy) IsValid() bool {
	switch p {
	case MarkerPolicyReject, MarkerPolicyFirst:
		return true
	default:
		return false
	}
}

const (
	DefaultToolPath        = "7z"
	DefaultMarkerExtension = ".uplugin"
	DefaultWorkers         = 1
	MaxWorkers             = 8
)

// Settings is the per-run configuration handed to the batch orchestrator.
// It is loaded and persisted by the settings store; the core only reads it.
type Settings struct {
	ToolPath         string       `toml:"tool_path" json:"tool_path"`
	DestinationRoot  string       `toml:"destination_root" json:"destination_root"`
	Overwrite        bool         `toml:"overwrite" json:"overwrite"`
	Workers          int          `toml:"workers,omitempty" json:"workers,omitempty"`
	MarkerExtensions []string     `toml:"marker_extensions,omitempty" json:"marker_extensions,omitempty"`
	MarkerPolicy     MarkerPolicy `toml:"marker_policy,omitempty" json:"marker_policy,omitempty"`
	TempDir          string       `toml:"temp_dir,omitempty" json:"temp_dir,omitempty"`
}

// DefaultSettings returns the configuration used on first launch
func DefaultSettings() Settings {
	return Settings{
		ToolPath:         DefaultToolPath,
		Workers:          DefaultWorkers,
		MarkerExtensions: []string{DefaultMarkerExtension},
		MarkerPolicy:     MarkerPolicyReject,
	}
}

// WithDefaults fills zero-valued optional fields and clamps Workers
func (s Settings) WithDefaults() Settings {
	if s.ToolPath == "" {
		s.ToolPath = DefaultToolPath
	}
	if len(s.MarkerExtensions) == 0 {
		s.MarkerExtensions = []string{DefaultMarkerExtension}
	} else {
		s.MarkerExtensions = append([]string(nil), s.MarkerExtensions...)
	}
	if s.MarkerPolicy == "" {
		s.MarkerPolicy = MarkerPolicyReject
	}
	switch {
	case s.Workers < 1:
		s.Workers = DefaultWorkers
	case s.Workers > MaxWorkers:
		s.Workers = MaxWorkers
	}
	return s
}
