package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Idempotency tells the dispatcher whether a request may be repeated after an
// ambiguous failure.
type Idempotency int

const (
	// NotSafeToRetry is the zero value: a mutation whose duplicate would be
	// visible (a second like, a second message).
	NotSafeToRetry Idempotency = iota
	// SafeToRetry marks reads and other repeatable operations.
	SafeToRetry
)

// String returns a readable name.
func (i Idempotency) String() string {
	if i == SafeToRetry {
		return "safe_to_retry"
	}
	return "not_safe_to_retry"
}

// LogicalRequest is one operation against the remote service, independent of
// how many network attempts it takes.
type LogicalRequest struct {
	// Operation names the call for telemetry (e.g. "like").
	Operation string

	Method string
	// Path is relative to the dispatcher base URL and must start with "/".
	Path string
	// Query parameters; order is irrelevant.
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// Header holds extra per-request headers.
	Header http.Header

	Idempotency Idempotency
}

// Validate reports caller contract violations.
func (r LogicalRequest) Validate() error {
	if r.Method == "" {
		return fmt.Errorf("%w: method is empty", ErrInvalidRequest)
	}
	if strings.ContainsAny(r.Method, " \t\r\n") {
		return fmt.Errorf("%w: method %q contains whitespace", ErrInvalidRequest, r.Method)
	}
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidRequest, r.Path)
	}
	if strings.Contains(r.Path, "?") {
		return fmt.Errorf("%w: path %q must not carry a query string, use Query", ErrInvalidRequest, r.Path)
	}
	if r.Body != nil {
		if _, err := json.Marshal(r.Body); err != nil {
			return fmt.Errorf("%w: body is not JSON encodable: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

// name returns the operation name, falling back to "METHOD /path".
func (r LogicalRequest) name() string {
	if r.Operation != "" {
		return r.Operation
	}
	return r.Method + " " + r.Path
}

// mustValidate panics on an invalid request. A malformed request is a
// programming error, not a runtime failure.
func (r LogicalRequest) mustValidate() {
	if err := r.Validate(); err != nil {
		panic(fmt.Sprintf("core: %v", err))
	}
}
