// Package apperr defines the error kinds surfaced by phpack operations.
//
// Every failure returned by the classifier, the registry, the dev server
// controller and the build pipeline is an *Error carrying one of the Kind
// values below. Callers match kinds with errors.Is against the exported
// sentinels:
//
//	if errors.Is(err, apperr.ErrPortInUse) {
//	    // pick another port
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	InvalidPath         Kind = "invalid path"
	PortInUse           Kind = "port in use"
	NotFound            Kind = "not found"
	RuntimeUnavailable  Kind = "php runtime unavailable"
	ToolUnavailable     Kind = "composer unavailable"
	InstallFailed       Kind = "install failed"
	StagingFailed       Kind = "staging failed"
	CopyFailed          Kind = "copy failed"
	WriteFailed         Kind = "write failed"
	UnsupportedPlatform Kind = "unsupported platform"
	NoPortAvailable     Kind = "no port available"
	KillFailed          Kind = "kill failed"
	InvalidConfig       Kind = "invalid config"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidPath         = &Error{Kind: InvalidPath}
	ErrPortInUse           = &Error{Kind: PortInUse}
	ErrNotFound            = &Error{Kind: NotFound}
	ErrRuntimeUnavailable  = &Error{Kind: RuntimeUnavailable}
	ErrToolUnavailable     = &Error{Kind: ToolUnavailable}
	ErrInstallFailed       = &Error{Kind: InstallFailed}
	ErrStagingFailed       = &Error{Kind: StagingFailed}
	ErrCopyFailed          = &Error{Kind: CopyFailed}
	ErrWriteFailed         = &Error{Kind: WriteFailed}
	ErrUnsupportedPlatform = &Error{Kind: UnsupportedPlatform}
	ErrNoPortAvailable     = &Error{Kind: NoPortAvailable}
	ErrKillFailed          = &Error{Kind: KillFailed}
	ErrInvalidConfig       = &Error{Kind: InvalidConfig}
)

// Error is a kind-tagged failure of a named operation.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "start server" or "copy project files".
	Op string
	// Detail is extra diagnostic text, e.g. captured stderr of composer.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind with a formatted cause.
func New(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind and op. It returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
