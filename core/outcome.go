package core

import (
	"encoding/json"
	"time"
)

// Outcome is the terminal result of one LogicalRequest.
// Err is nil exactly when the request succeeded.
type Outcome struct {
	StatusCode int
	Body       json.RawMessage
	// Attempts is the number of network exchanges performed.
	Attempts  int
	RequestID string
	Err       *Failure
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind returns the failure kind, or KindNone on success.
func (o Outcome) Kind() ErrorKind {
	if o.Err == nil {
		return KindNone
	}
	return o.Err.Kind
}

// Error returns the failure as an error, or nil on success.
// It avoids the typed-nil trap of returning o.Err directly.
func (o Outcome) Error() error {
	if o.Err == nil {
		return nil
	}
	return o.Err
}

// Decode unmarshals a successful body into v. An empty body leaves v untouched.
// A failed outcome returns its Failure; a body that does not fit v returns a
// ProtocolError failure.
func (o Outcome) Decode(v any) error {
	if o.Err != nil {
		return o.Err
	}
	if len(o.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(o.Body, v); err != nil {
		return &Failure{
			Kind:           KindProtocolError,
			Message:        "response does not match expected shape",
			LastStatusCode: o.StatusCode,
			RequestID:      o.RequestID,
			Err:            err,
		}
	}
	return nil
}

func success(status int, body []byte, attempts int, requestID string) Outcome {
	return Outcome{
		StatusCode: status,
		Body:       json.RawMessage(body),
		Attempts:   attempts,
		RequestID:  requestID,
	}
}

func failure(f *Failure, attempts int) Outcome {
	return Outcome{
		StatusCode: f.LastStatusCode,
		Attempts:   attempts,
		RequestID:  f.RequestID,
		Err:        f,
	}
}

// cancelledOutcome is the result for a request that never started.
func cancelledOutcome(cause error) Outcome {
	return failure(&Failure{
		Kind:    KindCancelled,
		Message: "not started: cancelled",
		Err:     cause,
	}, 0)
}

// AttemptRecord describes one attempt inside a dispatcher retry loop.
// It never leaves the Execute call that created it, except as a telemetry event.
type AttemptRecord struct {
	Attempt int
	Kind    ErrorKind
	Wait    time.Duration
}

// BatchItem pairs a request with its resolved outcome.
type BatchItem struct {
	Request LogicalRequest
	Outcome Outcome
}

// Outcomes returns the outcomes of items in order.
func Outcomes(items []BatchItem) []Outcome {
	out := make([]Outcome, len(items))
	for i, it := range items {
		out[i] = it.Outcome
	}
	return out
}
