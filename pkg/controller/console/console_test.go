package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smodinst/pkg/controller/console"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

func TestProgress_OnProgress(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewProgress(&buf)

	p.OnProgress(context.Background(), model.ProgressEvent{
		Package:   model.Package{Name: "MyTestMod.smod"},
		Outcome:   model.Outcome{Status: model.OutcomeInstalled, Destination: "/mods/MyTestMod"},
		Completed: 1,
		Total:     3,
	})
	p.OnProgress(context.Background(), model.ProgressEvent{
		Package: model.Package{Name: "Broken.smod"},
		Outcome: model.Outcome{
			Status:  model.OutcomeFailed,
			Reason:  model.ReasonExtractionFailed,
			Message: "archive tool exited with an error",
		},
		Completed: 2,
		Total:     3,
	})

	gt.Equal(t, buf.String(),
		"[1/3] MyTestMod.smod: installed -> /mods/MyTestMod\n"+
			"[2/3] Broken.smod: failed (extraction_failed) archive tool exited with an error\n")
}

func TestProgress_Color(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewProgress(&buf, console.WithColor(true))

	p.OnProgress(context.Background(), model.ProgressEvent{
		Package:   model.Package{Name: "A.smod"},
		Outcome:   model.Outcome{Status: model.OutcomeSkipped, Reason: model.ReasonAlreadyExists},
		Completed: 1,
		Total:     1,
	})
	gt.String(t, buf.String()).Contains("\x1b[")
}

func newReport() *model.BatchReport {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &model.BatchReport{
		ID:         "batch-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcomes: []model.Outcome{
			{Package: model.Package{Name: "A.smod"}, Status: model.OutcomeInstalled},
			{
				Package:    model.Package{Name: "B.smod"},
				Status:     model.OutcomeFailed,
				Reason:     model.ReasonExtractionFailed,
				ExitCode:   2,
				Diagnostic: "Data Error",
			},
		},
	}
	r.Finalize()
	return r
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, console.WriteSummary(&buf, newReport(), false))

	gt.Equal(t, buf.String(),
		"Summary: 1 installed, 0 skipped, 1 failed (total 2, 1.5s)\n"+
			"  x B.smod: extraction_failed\n"+
			"      exit code 2: Data Error\n")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, console.WriteJSON(&buf, newReport()))

	var decoded model.BatchReport
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	gt.Equal(t, decoded.ID, "batch-1")
	gt.Equal(t, decoded.Summary, model.Summary{Total: 2, Installed: 1, Failed: 1})
	gt.Equal(t, decoded.Outcomes[1].Reason, model.ReasonExtractionFailed)
}
