package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
	"github.com/mattn/go-isatty"
)

// Progress writes one line per finished package
type Progress struct {
	w  io.Writer
	mu sync.Mutex

	installed *color.Color
	skipped   *color.Color
	failed    *color.Color
	dim       *color.Color
}

// ProgressOption is a functional option for Progress
type ProgressOption func(*Progress)

// WithColor forces colored output on or off
func WithColor(enabled bool) ProgressOption {
	return func(p *Progress) {
		p.setColor(enabled)
	}
}

// NewProgress creates a progress printer. Color is enabled when w is a terminal.
func NewProgress(w io.Writer, opts ...ProgressOption) *Progress {
	p := &Progress{
		w:         w,
		installed: color.New(color.FgGreen, color.Bold),
		skipped:   color.New(color.FgYellow),
		failed:    color.New(color.FgRed, color.Bold),
		dim:       color.New(color.Faint),
	}
	p.setColor(IsTerminal(w))

	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ interfaces.ProgressSink = (*Progress)(nil)

// OnProgress prints "[n/total] name: status ..." for the event
func (p *Progress) OnProgress(_ context.Context, ev model.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := ev.Outcome
	line := fmt.Sprintf("[%d/%d] %s: %s", ev.Completed, ev.Total, ev.Package.Name, p.status(out.Status))

	switch out.Status {
	case model.OutcomeInstalled:
		line += " " + p.dim.Sprintf("-> %s", out.Destination)
	case model.OutcomeSkipped:
		line += " " + p.dim.Sprintf("(%s: %s)", out.Reason, out.Destination)
	case model.OutcomeFailed:
		line += fmt.Sprintf(" (%s) %s", out.Reason, out.Message)
	}

	_, _ = fmt.Fprintln(p.w, line)
}

func (p *Progress) status(s model.OutcomeStatus) string {
	switch s {
	case model.OutcomeInstalled:
		return p.installed.Sprint(s)
	case model.OutcomeSkipped:
		return p.skipped.Sprint(s)
	case model.OutcomeFailed:
		return p.failed.Sprint(s)
	default:
		return string(s)
	}
}

func (p *Progress) setColor(enabled bool) {
	for _, c := range []*color.Color{p.installed, p.skipped, p.failed, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// IsTerminal reports whether w is a terminal file
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
