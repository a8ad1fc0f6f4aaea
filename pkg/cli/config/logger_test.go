package config_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smodinst/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{
			name:    "Valid level: debug",
			level:   "debug",
			wantErr: false,
		},
		{
			name:    "Valid level: DEBUG (case insensitive)",
			level:   "DEBUG",
			wantErr: false,
		},
		{
			name:    "Valid level: info",
			level:   "info",
			wantErr: false,
		},
		{
			name:    "Valid level: WARN",
			level:   "WARN",
			wantErr: false,
		},
		{
			name:    "Valid level: error",
			level:   "error",
			wantErr: false,
		},
		{
			name:    "Invalid level: invalid",
			level:   "invalid",
			wantErr: true,
		},
		{
			name:    "Invalid level: empty string",
			level:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &config.Logger{
				Level:  tt.level,
				Format: "text",
				Writer: &bytes.Buffer{},
			}

			result, err := logger.Configure()
			if (err != nil) != tt.wantErr {
				t.Errorf("Configure() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && result == nil {
				t.Error("Configure() returned nil logger for valid input")
			}
		})
	}
}

func TestLogger_Configure_Format(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "console", format: "console"},
		{name: "default is console", format: ""},
		{name: "text", format: "text"},
		{name: "json", format: "json"},
		{name: "JSON upper case", format: "JSON"},
		{name: "unknown", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := &config.Logger{
				Level:  "info",
				Format: tt.format,
				Writer: &buf,
			}

			result, err := logger.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, result).NotNil()

			result.Info("test log message")
			gt.String(t, buf.String()).Contains("test log message")
		})
	}
}

func TestLogger_Configure_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := &config.Logger{
		Level:  "warn",
		Format: "json",
		Writer: &buf,
	}

	result, err := logger.Configure()
	gt.NoError(t, err)

	result.Info("filtered out")
	result.Warn("kept", "package", "MyTestMod.smod")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	gt.Equal(t, len(lines), 1)

	var rec map[string]any
	gt.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	gt.Equal(t, rec["msg"], any("kept"))
	gt.Equal(t, rec["package"], any("MyTestMod.smod"))
}

func TestLogger_Flags(t *testing.T) {
	logger := &config.Logger{}
	flags := logger.Flags()

	if len(flags) != 2 {
		t.Errorf("Flags() returned %d flags, want 2", len(flags))
	}

	flagNames := make(map[string]bool)
	for _, flag := range flags {
		switch f := flag.(type) {
		case interface{ Names() []string }:
			names := f.Names()
			if len(names) > 0 {
				flagNames[names[0]] = true
			}
		}
	}

	if !flagNames["log-level"] {
		t.Error("Missing log-level flag")
	}
	if !flagNames["log-format"] {
		t.Error("Missing log-format flag")
	}
}
