// Package svnerr defines the stable error taxonomy shared by every layer of
// the client: a small set of sentinel kinds, a carrier type that attaches a
// message, source location, and optional chained cause, and helpers for
// composing cleanup errors onto a primary failure.
package svnerr

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind is a stable error classification. Callers compare with errors.Is
// against the sentinel Kind values below — never against error message text.
type Kind struct {
	name string
}

func (k Kind) String() string { return k.name }

// Sentinel kinds. Names are the contract (spec.md §6 "Error taxonomy on the
// wire") — do not rename without updating callers that match on them.
var (
	KindBadRevision                 = Kind{"CLIENT_BAD_REVISION"}
	KindEntryNotFound               = Kind{"ENTRY_NOT_FOUND"}
	KindEntryExists                 = Kind{"ENTRY_EXISTS"}
	KindIsBinaryFile                = Kind{"CLIENT_IS_BINARY_FILE"}
	KindUnknownEOL                  = Kind{"IO_UNKNOWN_EOL"}
	KindFSNotFound                  = Kind{"FS_NOT_FOUND"}
	KindIllegalTarget               = Kind{"ILLEGAL_TARGET"}
	KindBadMimeType                 = Kind{"BAD_MIME_TYPE"}
	KindConflictResolverFailure     = Kind{"WC_CONFLICT_RESOLVER_FAILURE"}
	KindConflictOptionNotApplicable = Kind{"CLIENT_CONFLICT_OPTION_NOT_APPLICABLE"}
	KindMkactivityFailed            = Kind{"RA_MKACTIVITY_FAILED"}
	KindCreatingRequest             = Kind{"RA_CREATING_REQUEST"}
	KindCancelled                   = Kind{"CANCELLED"}

	// Session-layer kinds (spec.md §6, HTTP-classification grounded on
	// internal/graph/errors.go's sentinel set).
	KindBadRequest   = Kind{"RA_BAD_REQUEST"}
	KindUnauthorized = Kind{"RA_UNAUTHORIZED"}
	KindForbidden    = Kind{"RA_FORBIDDEN"}
	KindNotFound     = Kind{"RA_NOT_FOUND"}
	KindConflict     = Kind{"RA_CONFLICT"}
	KindGone         = Kind{"RA_GONE"}
	KindThrottled    = Kind{"RA_THROTTLED"}
	KindLocked       = Kind{"RA_LOCKED"}
	KindServerError  = Kind{"RA_SERVER_ERROR"}

	// KindInvariant marks a broken core invariant — always a bug, never a
	// user-facing condition (spec.md §7 "Fatal, surface: ... any
	// invariant-violation assertion").
	KindInvariant = Kind{"CLIENT_INVARIANT_VIOLATION"}
)

// Error is the carrier type used throughout the module. It records a stable
// Kind, a human message, the call site that created it, and an optional
// chained cause (e.g. a cleanup failure chained onto a primary error).
type Error struct {
	Kind     Kind
	Message  string
	Location string // file:line of the call to New/Wrap
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the chained cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, or a bare Kind
// value — this lets callers write errors.Is(err, svnerr.KindBadRevision).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}

	return false
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: callerLocation(),
	}
}

// Wrap creates an Error of the given kind chained onto cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: callerLocation(),
		Cause:    cause,
	}
}

// ChainCleanup composes a cleanup-path error onto a primary error so callers
// see the full sequence (spec.md §7 "producers compose causes"). If primary
// is nil, cleanupErr is returned unchanged (possibly nil). If cleanupErr is
// nil, primary is returned unchanged.
func ChainCleanup(primary, cleanupErr error) error {
	if primary == nil {
		return cleanupErr
	}

	if cleanupErr == nil {
		return primary
	}

	return &Error{
		Kind:     KindOf(primary),
		Message:  primary.Error(),
		Location: callerLocation(),
		Cause:    fmt.Errorf("cleanup also failed: %w", cleanupErr),
	}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, or the
// zero Kind otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Kind{}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}

		if e.Cause == nil {
			return false
		}

		err = e.Cause
	}

	return false
}

// callerLocation returns "file:line" for the caller's caller (skip 2: this
// function and the New/Wrap that invoked it).
func callerLocation() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}

	return fmt.Sprintf("%s:%d", file, line)
}

// Cancelled returns an Error of KindCancelled, the dedicated error raised
// when the caller-supplied cancellation predicate reports cancelled
// (spec.md §5 "Suspension points").
func Cancelled() *Error {
	return New(KindCancelled, "operation cancelled")
}
