package entities

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound      = errors.New("automation task not found")
	ErrEmptyTranscript   = errors.New("transcript is empty")
	ErrEmptyRoster       = errors.New("team roster has no members")
	ErrMissingCardTarget = errors.New("board and list are required to create tracker cards")
)

// AnalysisErrorKind classifies analyzer failures
type AnalysisErrorKind string

const (
	AnalysisParseFailed   AnalysisErrorKind = "parse_failed"    // Model output did not match the required schema
	AnalysisRemoteFailed  AnalysisErrorKind = "remote_failed"   // Language-model call errored or timed out
	AnalysisInputTooLarge AnalysisErrorKind = "input_too_large" // Transcript over the configured limit, rejected before the remote call
)

// AnalysisError is returned by the analyzer. No partial MeetingAnalysis ever
// accompanies one; parse failure is total failure.
type AnalysisError struct {
	Kind AnalysisErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("analysis failed (%s)", e.Kind)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError wraps err with an analysis failure kind
func NewAnalysisError(kind AnalysisErrorKind, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Err: err}
}

// DispatchError is raised only for fatal precondition violations of a
// dispatch pass. Individual task failures are recorded on the tasks
// themselves, never raised.
type DispatchError struct {
	Reason string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch precondition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("dispatch precondition failed: %s", e.Reason)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ReconciliationError captures a per-task reconciliation failure. It is
// recorded on the task and logged, never escalated to a process-level fault.
type ReconciliationError struct {
	TaskID uuid.UUID
	Err    error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed for task %s: %v", e.TaskID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
