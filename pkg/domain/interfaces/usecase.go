package interfaces

import (
	"context"

	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

// BatchUseCase installs a set of packages
type BatchUseCase interface {
	// Run processes every package and returns the per-package outcomes in input order.
	// An error is returned only for batch-fatal conditions detected before any package is touched.
	Run(ctx context.Context, settings model.Settings, packages []model.Package, sink ProgressSink) (*model.BatchReport, error)
}

// ProgressSink receives one event after each package reaches StageDone.
// Calls are serialized by the orchestrator.
type ProgressSink interface {
	OnProgress(ctx context.Context, event model.ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(ctx context.Context, event model.ProgressEvent)

// OnProgress calls f
func (f ProgressFunc) OnProgress(ctx context.Context, event model.ProgressEvent) {
	f(ctx, event)
}

// SettingsStore loads and persists user settings
type SettingsStore interface {
	Load() (model.Settings, error)
	Save(model.Settings) error
	Path() string
}
