package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure once, where it is caught. Downstream code
// decides retry and status mapping from the kind only.
type ErrorKind string

const (
	// KindMissingCredential means no API key is configured. Never retried.
	KindMissingCredential ErrorKind = "missing_credential"
	// KindQuotaExceeded means the quota or credit of an API is exhausted. Never retried.
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	// KindTransient covers timeouts, network errors, 5xx and plain 429s.
	KindTransient ErrorKind = "transient"
	// KindValidation means a response or input did not match its schema. Terminal.
	KindValidation ErrorKind = "validation_failure"
	// KindNotFound is returned by single-item lookups.
	KindNotFound ErrorKind = "not_found"
	// KindPermanent covers malformed requests and other unretryable upstream errors.
	KindPermanent ErrorKind = "permanent"
)

// Retryable reports whether an operation failing with k may be attempted again.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}

// Error is a classified failure.
type Error struct {
	Kind     ErrorKind
	Op       string
	Platform Platform
	// Hint tells an operator how to fix the condition, e.g. which env var to set.
	Hint string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// MissingCredential builds the fail-fast error for an unset API key.
func MissingCredential(op string, platform Platform, envVar string) *Error {
	return &Error{
		Kind:     KindMissingCredential,
		Op:       op,
		Platform: platform,
		Hint:     "set " + envVar + " in the environment or config.yml",
		Err:      errors.New("api key is not configured"),
	}
}

// WithPlatform sets the platform and returns e.
func (e *Error) WithPlatform(p Platform) *Error {
	e.Platform = p
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// was never classified.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// HintOf returns the remediation hint of a classified error, if any.
func HintOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Hint
	}
	return ""
}

// IsRetryable reports whether err is classified as transient.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// ErrNotFound is wrapped by repositories for missing rows.
var ErrNotFound = &Error{Kind: KindNotFound, Err: errors.New("not found")}
