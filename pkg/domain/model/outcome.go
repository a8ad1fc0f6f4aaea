package model

import "time"

// OutcomeStatus is the terminal result of one package
type OutcomeStatus string

const (
	OutcomeInstalled OutcomeStatus = "installed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Reason explains a skipped or failed outcome
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonToolMissing      Reason = "tool_missing"
	ReasonExtractionFailed Reason = "extraction_failed"
	ReasonNoMarkerFound    Reason = "no_marker_found"
	ReasonAmbiguousMarker  Reason = "ambiguous_marker"
	ReasonInvalidName      Reason = "invalid_name"
	ReasonAlreadyExists    Reason = "already_exists"
	ReasonDestinationIO    Reason = "destination_io"
	ReasonCanceled         Reason = "canceled"
)

// Outcome is the immutable per-package result collected by the batch orchestrator
type Outcome struct {
	Package     Package       `json:"package"`
	Status      OutcomeStatus `json:"status"`
	Reason      Reason        `json:"reason,omitempty"`
	Message     string        `json:"message,omitempty"`
	InstallName string        `json:"install_name,omitempty"`
	Destination string        `json:"destination,omitempty"`
	ExitCode    int           `json:"exit_code,omitempty"`
	Diagnostic  string        `json:"diagnostic,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Summary counts outcomes by status
type Summary struct {
	Total     int `json:"total"`
	Installed int `json:"installed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// BatchReport is the result of one batch run. Outcomes keep the input order.
type BatchReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
	Summary    Summary   `json:"summary"`
}

// Finalize recomputes Summary from Outcomes
func (r *BatchReport) Finalize() {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomeInstalled:
			s.Installed++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// HasFailures reports whether any package failed
func (r *BatchReport) HasFailures() bool {
	return r.Summary.Failed > 0
}
