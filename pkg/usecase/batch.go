package usecase

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/m-mizutani/smodinst/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// StageHook observes every stage transition of every package
type StageHook func(index int, pkg model.Package, stage model.Stage)

// Batch runs the extract, locate and install pipeline over a set of packages
type Batch struct {
	newExtractor interfaces.ExtractorFactory
	installer    *Installer
	mkdirTemp    func(dir, pattern string) (string, error)
	removeAll    func(path string) error
	now          func() time.Time
	stageHook    StageHook
}

// BatchOption is a functional option for Batch
type BatchOption func(*Batch)

// WithMkdirTemp replaces os.MkdirTemp for the batch workspace and extraction directories
func WithMkdirTemp(f func(dir, pattern string) (string, error)) BatchOption {
	return func(b *Batch) {
		b.mkdirTemp = f
	}
}

// WithRemoveAll replaces os.RemoveAll used by cleanup
func WithRemoveAll(f func(path string) error) BatchOption {
	return func(b *Batch) {
		b.removeAll = f
	}
}

// WithClock replaces time.Now
func WithClock(f func() time.Time) BatchOption {
	return func(b *Batch) {
		b.now = f
	}
}

// WithStageHook registers a stage transition observer. The hook is called
// from worker goroutines and must be safe for concurrent use.
func WithStageHook(h StageHook) BatchOption {
	return func(b *Batch) {
		b.stageHook = h
	}
}

// NewBatch creates the batch orchestrator
func NewBatch(newExtractor interfaces.ExtractorFactory, opts ...BatchOption) *Batch {
	b := &Batch{
		newExtractor: newExtractor,
		installer:    NewInstaller(),
		mkdirTemp:    os.MkdirTemp,
		removeAll:    os.RemoveAll,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ interfaces.BatchUseCase = (*Batch)(nil)

// Run installs every package. Packages are independent: one failure never
// stops the others. The returned error is reserved for conditions detected
// before any package is touched.
func (b *Batch) Run(ctx context.Context, settings model.Settings, packages []model.Package, sink interfaces.ProgressSink) (*model.BatchReport, error) {
	settings = settings.WithDefaults()

	root, err := validateDestinationRoot(settings.DestinationRoot)
	if err != nil {
		return nil, err
	}
	settings.DestinationRoot = root

	if !settings.MarkerPolicy.IsValid() {
		return nil, goerr.New("unknown marker policy",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("policy", settings.MarkerPolicy),
		)
	}
	settings.MarkerExtensions = NormalizeExtensions(settings.MarkerExtensions)
	if len(settings.MarkerExtensions) == 0 {
		return nil, goerr.New("no marker extension configured", goerr.T(types.ErrTagInvalidConfig))
	}
	if len(packages) == 0 {
		return nil, goerr.New("no package to install", goerr.T(types.ErrTagInvalidConfig))
	}

	extractor, err := b.newExtractor(settings.ToolPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set up archive extractor")
	}

	batchID := uuid.NewString()
	logger := ctxlog.From(ctx).With("batch_id", batchID)
	ctx = ctxlog.With(ctx, logger)

	workspace, err := b.mkdirTemp(settings.TempDir, types.AppName+"-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create batch workspace", goerr.V("temp_dir", settings.TempDir))
	}
	defer b.cleanup(ctx, workspace)

	logger.Info("Starting batch",
		"packages", len(packages),
		"destination_root", settings.DestinationRoot,
		"tool", settings.ToolPath,
		"overwrite", settings.Overwrite,
		"workers", settings.Workers,
	)

	report := &model.BatchReport{
		ID:        batchID,
		StartedAt: b.now().UTC(),
	}
	results := newCollector(batchID, len(packages), sink)

	var eg errgroup.Group
	eg.SetLimit(settings.Workers)
	for idx, pkg := range packages {
		eg.Go(func() error {
			outcome := b.processOne(ctx, workspace, settings, extractor, idx, pkg)
			results.add(ctx, idx, outcome)
			return nil
		})
	}
	_ = eg.Wait()

	report.Outcomes = results.ordered()
	report.FinishedAt = b.now().UTC()
	report.Finalize()

	logger.Info("Batch finished",
		"installed", report.Summary.Installed,
		"skipped", report.Summary.Skipped,
		"failed", report.Summary.Failed,
	)

	return report, nil
}

func validateDestinationRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", goerr.New("destination root is not set", goerr.T(types.ErrTagInvalidConfig))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve destination root",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("destination_root", root),
		)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", goerr.Wrap(err, "destination root is not accessible",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("destination_root", abs),
		)
	}
	if !info.IsDir() {
		return "", goerr.New("destination root is not a directory",
			goerr.T(types.ErrTagInvalidConfig),
			goerr.V("destination_root", abs),
		)
	}
	return abs, nil
}

// processOne drives one package through the stage machine. Cleanup of the
// extraction directory always happens before the outcome is returned.
func (b *Batch) processOne(ctx context.Context, workspace string, settings model.Settings, extractor interfaces.Extractor, idx int, pkg model.Package) model.Outcome {
	start := b.now()
	logger := ctxlog.From(ctx).With("package", pkg.Name, "index", idx)
	ctx = ctxlog.With(ctx, logger)

	st := &stageTracker{
		index:   idx,
		pkg:     pkg,
		current: model.StagePending,
		logger:  logger,
		hook:    b.stageHook,
	}

	var tempDir string
	outcome := b.execute(ctx, st, workspace, settings, extractor, pkg, &tempDir)

	st.to(model.StageOf(outcome.Status))
	st.to(model.StageCleaningUp)
	b.cleanup(ctx, tempDir)
	st.to(model.StageDone)

	outcome.Duration = b.now().Sub(start)

	attrs := []any{
		"status", outcome.Status,
		"duration", outcome.Duration,
	}
	if outcome.Destination != "" {
		attrs = append(attrs, "destination", outcome.Destination)
	}
	switch outcome.Status {
	case model.OutcomeFailed:
		logger.Error("Package failed", append(attrs, "reason", outcome.Reason, "error", outcome.Message)...)
	case model.OutcomeSkipped:
		logger.Warn("Package skipped", append(attrs, "reason", outcome.Reason)...)
	default:
		logger.Info("Package installed", attrs...)
	}

	return outcome
}

func (b *Batch) execute(ctx context.Context, st *stageTracker, workspace string, settings model.Settings, extractor interfaces.Extractor, pkg model.Package, tempDir *string) model.Outcome {
	if err := ctx.Err(); err != nil {
		return failedOutcome(pkg, goerr.Wrap(err, "batch canceled before package started", goerr.T(types.ErrTagCanceled)), nil)
	}

	st.to(model.StageExtracting)
	dir, err := b.mkdirTemp(workspace, "pkg-*")
	if err != nil {
		return failedOutcome(pkg, goerr.Wrap(err, "failed to create extraction directory",
			goerr.T(types.ErrTagExtractionFailed),
			goerr.V("workspace", workspace),
		), nil)
	}
	*tempDir = dir

	cmdLog, err := extractor.Extract(ctx, pkg, dir)
	if err != nil {
		return failedOutcome(pkg, err, cmdLog)
	}

	st.to(model.StageLocating)
	marker, err := LocateMarker(ctx, dir, settings.MarkerExtensions, settings.MarkerPolicy)
	if err != nil {
		return failedOutcome(pkg, err, nil)
	}
	ctxlog.From(ctx).Debug("Marker located", "marker", marker.RelPath, "name", marker.Name)

	st.to(model.StageInstalling)
	source, err := ContentRoot(dir)
	if err != nil {
		out := failedOutcome(pkg, err, nil)
		out.InstallName = marker.Name
		return out
	}
	if source != dir {
		ctxlog.From(ctx).Debug("Unwrapped single top-level folder", "folder", filepath.Base(source))
	}

	res, err := b.installer.Install(ctx, InstallRequest{
		SourceDir:       source,
		Name:            marker.Name,
		DestinationRoot: settings.DestinationRoot,
		Overwrite:       settings.Overwrite,
	})
	if err != nil {
		if goerr.HasTag(err, types.ErrTagAlreadyExists) {
			return model.Outcome{
				Package:     pkg,
				Status:      model.OutcomeSkipped,
				Reason:      model.ReasonAlreadyExists,
				Message:     err.Error(),
				InstallName: marker.Name,
				Destination: filepath.Join(settings.DestinationRoot, marker.Name),
			}
		}
		out := failedOutcome(pkg, err, nil)
		out.InstallName = marker.Name
		return out
	}

	return model.Outcome{
		Package:     pkg,
		Status:      model.OutcomeInstalled,
		InstallName: marker.Name,
		Destination: res.Destination,
	}
}

func failedOutcome(pkg model.Package, err error, cmdLog *model.CommandLog) model.Outcome {
	out := model.Outcome{
		Package: pkg,
		Status:  model.OutcomeFailed,
		Reason:  ReasonOf(err),
		Message: err.Error(),
	}
	if cmdLog != nil {
		out.ExitCode = cmdLog.ExitCode
		out.Diagnostic = cmdLog.Diagnostic()
	}
	return out
}

// ReasonOf maps a tagged per-package error to an outcome reason. Untagged
// errors are reported as destination I/O failures.
func ReasonOf(err error) model.Reason {
	switch {
	case goerr.HasTag(err, types.ErrTagCanceled):
		return model.ReasonCanceled
	case goerr.HasTag(err, types.ErrTagToolMissing):
		return model.ReasonToolMissing
	case goerr.HasTag(err, types.ErrTagExtractionFailed):
		return model.ReasonExtractionFailed
	case goerr.HasTag(err, types.ErrTagNoMarkerFound):
		return model.ReasonNoMarkerFound
	case goerr.HasTag(err, types.ErrTagAmbiguousMarker):
		return model.ReasonAmbiguousMarker
	case goerr.HasTag(err, types.ErrTagInvalidName):
		return model.ReasonInvalidName
	case goerr.HasTag(err, types.ErrTagAlreadyExists):
		return model.ReasonAlreadyExists
	default:
		return model.ReasonDestinationIO
	}
}

// stageTracker enforces the per-package stage machine
type stageTracker struct {
	index   int
	pkg     model.Package
	current model.Stage
	logger  *slog.Logger
	hook    StageHook
}

func (t *stageTracker) to(next model.Stage) {
	if !t.current.CanTransition(next) {
		t.logger.Error("Invalid stage transition", "from", t.current, "to", next)
	}
	t.logger.Debug("Stage changed", "from", t.current, "to", next)
	t.current = next

	if t.hook != nil {
		t.hook(t.index, t.pkg, next)
	}
}
