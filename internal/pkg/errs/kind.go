package errs

import "errors"

// Kind classifies a failure for callers. Handlers map it to a status code and
// callers use it to decide whether a retry can help.
type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindStateConflict    Kind = "STATE_CONFLICT"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindAuthorization    Kind = "AUTHORIZATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindTransient        Kind = "TRANSIENT"
	KindInternal         Kind = "INTERNAL"
)

// Retryable reports whether the same call may succeed later without the
// caller changing anything. Only infrastructure hiccups qualify.
func (k Kind) Retryable() bool {
	return k == KindTransient
}

type kinded interface {
	Kind() Kind
}

// Error is a sentinel carrying its Kind. Declare with Define and compare with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func Define(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() Kind    { return e.kind }

type kindWrapper struct {
	cause error
	kind  Kind
}

func (w *kindWrapper) Error() string { return w.cause.Error() }
func (w *kindWrapper) Unwrap() error { return w.cause }
func (w *kindWrapper) Kind() Kind    { return w.kind }

// WithKind attaches a Kind to an arbitrary error without hiding it.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindWrapper{cause: err, kind: kind}
}

// KindOf returns the outermost Kind found on the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}
