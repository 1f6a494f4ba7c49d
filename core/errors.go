package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a failed exchange with the remote service.
type ErrorKind int

const (
	// KindNone marks an attempt that did not fail.
	KindNone ErrorKind = iota
	// KindTransient covers timeouts, connection resets and 5xx responses.
	KindTransient
	// KindRateLimited is a 429 response.
	KindRateLimited
	// KindAuthExpired is a 401/403 response or a missing credential.
	KindAuthExpired
	// KindClientError is any other 4xx response. Never retried.
	KindClientError
	// KindProtocolError is a 2xx response whose body cannot be decoded.
	KindProtocolError
	// KindCancelled is an operation that never started because its batch was cancelled.
	KindCancelled
)

var kindNames = map[ErrorKind]string{
	KindNone:          "none",
	KindTransient:     "transient",
	KindRateLimited:   "rate_limited",
	KindAuthExpired:   "auth_expired",
	KindClientError:   "client_error",
	KindProtocolError: "protocol_error",
	KindCancelled:     "cancelled",
}

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether the kind can succeed on a later attempt with the
// same credentials and payload.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient || k == KindRateLimited
}

// Sentinel errors for classification.
var (
	ErrTransient     = errors.New("transient failure")
	ErrRateLimited   = errors.New("rate limited")
	ErrAuthExpired   = errors.New("authentication expired")
	ErrClientError   = errors.New("client error")
	ErrProtocolError = errors.New("protocol error")
	ErrCancelled     = errors.New("cancelled")
)

// Sentinel returns the sentinel error for the kind, or nil for KindNone.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindTransient:
		return ErrTransient
	case KindRateLimited:
		return ErrRateLimited
	case KindAuthExpired:
		return ErrAuthExpired
	case KindClientError:
		return ErrClientError
	case KindProtocolError:
		return ErrProtocolError
	case KindCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// ErrInvalidRequest is wrapped by LogicalRequest.Validate failures.
var ErrInvalidRequest = errors.New("invalid logical request")

// Failure is the terminal error of a logical request.
// It is a value, not a control-flow signal: the dispatcher returns it inside an
// Outcome and the batch executor stores it next to its request.
type Failure struct {
	Kind           ErrorKind
	Message        string
	LastStatusCode int
	RequestID      string

	// Ambiguous is set when the last attempt failed without a confirmed
	// response; the remote side may or may not have applied it.
	Ambiguous bool

	// RetryAfter is the server hint from the last response, if any.
	RetryAfter time.Duration

	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if f.LastStatusCode != 0 {
		fmt.Fprintf(&b, " (status=%d)", f.LastStatusCode)
	}
	if f.Ambiguous {
		b.WriteString(" (outcome unknown)")
	}
	if f.RequestID != "" {
		fmt.Fprintf(&b, " (request_id=%s)", f.RequestID)
	}
	return b.String()
}

// Unwrap returns the kind sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := f.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// KindOf extracts the ErrorKind from an error chain.
// Errors that carry no kind report KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindNone
}
