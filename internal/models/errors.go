package models

import (
	"errors"
	"fmt"
)

// FailureClass identifies who or what is at fault when a run aborts.
type FailureClass string

const (
	// FailureConfiguration covers incompatible peer contracts, robot/agent
	// count mismatches, and malformed run parameters. Never retried.
	FailureConfiguration FailureClass = "configuration"

	// FailureSubmission is attributed to the agent under evaluation: any
	// failure while exchanging observations or commands with it.
	FailureSubmission FailureClass = "submission"

	// FailureRetriesExhausted is raised when too many episodes completed
	// too short.
	FailureRetriesExhausted FailureClass = "retries_exhausted"

	// FailureRemoteAbort means a peer signalled an abort through the
	// channel; its own error should be observed before ours.
	FailureRemoteAbort FailureClass = "remote_abort"

	// FailureInfrastructure is the catch-all for timeouts, I/O errors and
	// peer crashes: a fault of the evaluator side, not the submission.
	FailureInfrastructure FailureClass = "infrastructure"
)

// RunError is a classified failure. All fatal errors that escape the
// orchestrator are of this type so callers can attribute blame.
type RunError struct {
	Class FailureClass
	Msg   string
	Err   error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Class, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Msg)
}

func (e *RunError) Unwrap() error { return e.Err }

// Configurationf creates a configuration error.
func Configurationf(format string, args ...any) error {
	return &RunError{Class: FailureConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// Submission wraps an agent-communication failure.
func Submission(err error, msg string) error {
	return &RunError{Class: FailureSubmission, Msg: msg, Err: err}
}

// Infrastructure wraps an anomalous evaluator-side failure.
func Infrastructure(err error, msg string) error {
	return &RunError{Class: FailureInfrastructure, Msg: msg, Err: err}
}

// RemoteAbort reports that the named peer aborted the protocol.
func RemoteAbort(peer string) error {
	return &RunError{Class: FailureRemoteAbort, Msg: fmt.Sprintf("peer %s aborted", peer)}
}

// RetriesExhausted reports that the episode failure budget is spent.
func RetriesExhausted(n int) error {
	return &RunError{Class: FailureRetriesExhausted, Msg: fmt.Sprintf("too many failures: %d", n)}
}

// ClassOf extracts the failure class of err. Unclassified errors count as
// infrastructure failures.
func ClassOf(err error) FailureClass {
	var re *RunError
	if errors.As(err, &re) {
		return re.Class
	}
	return FailureInfrastructure
}

// IsClass reports whether err carries the given failure class.
func IsClass(err error, class FailureClass) bool {
	var re *RunError
	return errors.As(err, &re) && re.Class == class
}
