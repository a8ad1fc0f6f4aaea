package interfaces

import (
	"context"

	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

// Extractor unpacks one package into a directory using an external archive tool
type Extractor interface {
	// Extract populates destDir with the package contents. The returned log is
	// non-nil whenever the tool was started, including on failure.
	Extract(ctx context.Context, pkg model.Package, destDir string) (*model.CommandLog, error)
}

// ExtractorFactory builds an Extractor for the tool configured in a batch
type ExtractorFactory func(toolPath string) (Extractor, error)
