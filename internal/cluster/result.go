package cluster

import "fmt"

// Status is the outcome tag of an operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Kind classifies a failed operation.
type Kind string

const (
	KindNone            Kind = ""
	KindNotReady        Kind = "NOT_READY"
	KindVersionConflict Kind = "VERSION_CONFLICT"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnreachable     Kind = "UNREACHABLE_PEER"
	KindLocalIO         Kind = "LOCAL_IO"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
)

// Result wraps the response of every operation. Version and Contents are
// only meaningful for successful reads and writes.
type Result struct {
	Status   Status `json:"status"`
	Kind     Kind   `json:"kind,omitempty"`
	Message  string `json:"message,omitempty"`
	Version  int64  `json:"version"`
	Contents []byte `json:"contents,omitempty"`
}

// Success returns an empty successful result.
func Success() Result {
	return Result{Status: StatusSuccess, Version: NoVersion}
}

// Failure builds a failed result of the given kind.
func Failure(kind Kind, format string, args ...interface{}) Result {
	return Result{
		Status:  StatusFailure,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Version: NoVersion,
	}
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Err converts a failed result into an error. It returns nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

// Error is the Go-side form of a failed Result.
type Error struct {
	Kind    Kind
	Message string
}

var (
	ErrNotReady        = &Error{Kind: KindNotReady}
	ErrVersionConflict = &Error{Kind: KindVersionConflict}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnreachable     = &Error{Kind: KindUnreachable}
	ErrLocalIO         = &Error{Kind: KindLocalIO}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
