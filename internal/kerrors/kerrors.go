// Package kerrors gives the reconciliation core a small closed set of error
// kinds so the reconcile loop can decide terminal-vs-transient-vs-conflict
// handling without string matching.
package kerrors

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// KindValidation means the Rollout spec itself is invalid; retrying
	// without a spec change will not help. Terminal: drives phase Failed.
	KindValidation Kind = "Validation"
	// KindConflict means an optimistic-concurrency write lost a race;
	// the caller should requeue immediately with no backoff.
	KindConflict Kind = "Conflict"
	// KindTransient covers everything else recoverable: API server
	// hiccups, missing dependent objects not yet created, metrics
	// backend timeouts. The caller should requeue with backoff.
	KindTransient Kind = "Transient"
)

// Error wraps an underlying cause with a Kind the reconcile loop switches on.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation wraps err as a terminal validation error.
func Validation(err error) *Error { return &Error{Kind: KindValidation, Err: err} }

// Validationf formats a terminal validation error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Conflict wraps err as an immediate-requeue conflict error.
func Conflict(err error) *Error { return &Error{Kind: KindConflict, Err: err} }

// Transient wraps err as a backoff-requeue error.
func Transient(err error) *Error { return &Error{Kind: KindTransient, Err: err} }

// Classify maps a generic error (typically from the Kubernetes API client)
// onto a Kind, recognizing apimachinery's NotFound/Conflict/ServerTimeout
// sentinels before falling back to Transient.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ke *Error
	if errors.As(err, &ke) {
		return ke
	}
	switch {
	case apierrors.IsConflict(err):
		return Conflict(err)
	case apierrors.IsNotFound(err):
		return Transient(err)
	case apierrors.IsServerTimeout(err), apierrors.IsTimeout(err), apierrors.IsTooManyRequests(err):
		return Transient(err)
	default:
		return Transient(err)
	}
}

// KindOf returns the Kind of err, defaulting to KindTransient for anything
// not produced by this package or Classify.
func KindOf(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindTransient
}

// IsValidation reports whether err is (or wraps) a terminal validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is (or wraps) an immediate-requeue conflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
