package model

// Stage is a step of the per-package state machine:
//
//	pending -> extracting -> locating -> installing -> {installed|skipped|failed} -> cleaning_up -> done
//
// failed is reachable from pending, extracting, locating and installing.
type Stage string

const (
	StagePending    Stage = "pending"
	StageExtracting Stage = "extracting"
	StageLocating   Stage = "locating"
	StageInstalling Stage = "installing"
	StageInstalled  Stage = "installed"
	StageSkipped    Stage = "skipped"
	StageFailed     Stage = "failed"
	StageCleaningUp Stage = "cleaning_up"
	StageDone       Stage = "done"
)

// CanTransition reports whether moving from s to next is a valid edge
func (s Stage) CanTransition(next Stage) bool {
	switch s {
	case StagePending:
		return next == StageExtracting || next == StageFailed
	case StageExtracting:
		return next == StageLocating || next == StageFailed
	case StageLocating:
		return next == StageInstalling || next == StageFailed
	case StageInstalling:
		return next == StageInstalled || next == StageSkipped || next == StageFailed
	case StageInstalled, StageSkipped, StageFailed:
		return next == StageCleaningUp
	case StageCleaningUp:
		return next == StageDone
	default:
		return false
	}
}

// IsTerminal reports whether s carries the package outcome
func (s Stage) IsTerminal() bool {
	return s == StageInstalled || s == StageSkipped || s == StageFailed
}

// StageOf maps an outcome status to its terminal stage
func StageOf(status OutcomeStatus) Stage {
	switch status {
	case OutcomeInstalled:
		return StageInstalled
	case OutcomeSkipped:
		return StageSkipped
	default:
		return StageFailed
	}
}
