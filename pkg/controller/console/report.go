package console

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

// WriteSummary prints the totals of a finished batch followed by the
// failures, one per line
func WriteSummary(w io.Writer, report *model.BatchReport, colored bool) error {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	if colored {
		bold.EnableColor()
		red.EnableColor()
	} else {
		bold.DisableColor()
		red.DisableColor()
	}

	s := report.Summary
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	if _, err := fmt.Fprintf(w, "%s %d installed, %d skipped, %d failed (total %d, %s)\n",
		bold.Sprint("Summary:"), s.Installed, s.Skipped, s.Failed, s.Total, elapsed); err != nil {
		return goerr.Wrap(err, "failed to write summary")
	}

	for _, out := range report.Outcomes {
		if out.Status != model.OutcomeFailed {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s %s: %s\n", red.Sprint("x"), out.Package.Name, out.Reason); err != nil {
			return goerr.Wrap(err, "failed to write summary")
		}
		if out.Diagnostic != "" {
			if _, err := fmt.Fprintf(w, "      exit code %d: %s\n", out.ExitCode, out.Diagnostic); err != nil {
				return goerr.Wrap(err, "failed to write summary")
			}
		}
	}
	return nil
}

// WriteJSON encodes the report as indented JSON
func WriteJSON(w io.Writer, report *model.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return goerr.Wrap(err, "failed to encode batch report")
	}
	return nil
}
