package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
)

// cleanup removes a temporary extraction directory and everything below it.
// A missing or partially removed directory is fine; a removal failure is
// logged and never changes the package outcome.
func (b *Batch) cleanup(ctx context.Context, dir string) {
	if dir == "" {
		return
	}

	logger := ctxlog.From(ctx)
	if err := b.removeAll(dir); err != nil {
		logger.Warn("Failed to clean up temporary directory",
			"temp_dir", dir,
			"error", err,
		)
		return
	}
	logger.Debug("Cleaned up temporary directory", "temp_dir", dir)
}
