// Package apperr defines the error taxonomy shared by the storage gateway,
// the job-queue client, and the orchestrator. Every failure that reaches the
// orchestrator boundary is an *Error with a Kind, so callers can branch on
// the category without string matching.
package apperr

import "errors"

// Kind classifies a failure.
type Kind string

const (
	InvalidEventFormat Kind = "InvalidEventFormat"
	EmptyTranscript    Kind = "EmptyTranscriptError"
	Config             Kind = "ConfigError"
	Submission         Kind = "SubmissionError"
	JobFailed          Kind = "JobFailedError"
	PollingTimeout     Kind = "PollingTimeoutError"
	StorageRead        Kind = "StorageReadError"
	StorageWrite       Kind = "StorageWriteError"
)

// Error carries a Kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error without a cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an *Error with err as its cause. A nil err behaves like New.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
