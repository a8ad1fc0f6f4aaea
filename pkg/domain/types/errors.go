package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify per-package failures. The batch orchestrator maps each tag
// to an outcome reason; InvalidConfig is the only batch-fatal tag.
var (
	ErrTagToolMissing      = goerr.NewTag("tool_missing")
	ErrTagExtractionFailed = goerr.NewTag("extraction_failed")
	ErrTagNoMarkerFound    = goerr.NewTag("no_marker_found")
	ErrTagAmbiguousMarker  = goerr.NewTag("ambiguous_marker")
	ErrTagInvalidName      = goerr.NewTag("invalid_name")
	ErrTagAlreadyExists    = goerr.NewTag("already_exists")
	ErrTagDestinationIO    = goerr.NewTag("destination_io")
	ErrTagCanceled         = goerr.NewTag("canceled")
	ErrTagInvalidConfig    = goerr.NewTag("invalid_config")
)
