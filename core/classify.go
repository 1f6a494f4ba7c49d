package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TransportOutcome is the raw result of one network exchange: either a
// response (StatusCode, Header, Body) or a transport error.
type TransportOutcome struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

// Classification is the classifier verdict for one exchange.
type Classification struct {
	// Kind is KindNone when the exchange succeeded.
	Kind ErrorKind
	// Ambiguous is true when no response was confirmed and the request may
	// already have been applied remotely.
	Ambiguous bool
	// RetryAfter is the parsed server hint, zero when absent.
	RetryAfter time.Duration
}

// Success reports whether the exchange produced a usable response.
func (c Classification) Success() bool {
	return c.Kind == KindNone
}

// Classifier maps transport outcomes to error kinds.
// The zero value applies the default table. Classifier is safe for concurrent use.
type Classifier struct {
	// StatusOverrides remaps exact non-2xx status codes.
	StatusOverrides map[int]ErrorKind

	// Now is used to resolve HTTP-date Retry-After values. Defaults to time.Now.
	Now func() time.Time
}

// DefaultClassifier returns a classifier with the default status table.
func DefaultClassifier() *Classifier {
	return &Classifier{}
}

// Classify maps a transport outcome to exactly one kind. It has no side effects.
func (c *Classifier) Classify(t TransportOutcome) Classification {
	if t.Err != nil {
		return classifyTransportError(t.Err)
	}
	if t.StatusCode == 0 {
		// A nil error without a status means nothing was confirmed.
		return Classification{Kind: KindTransient, Ambiguous: true}
	}

	if t.StatusCode >= 200 && t.StatusCode < 300 {
		body := bytes.TrimSpace(t.Body)
		if len(body) == 0 || json.Valid(body) {
			return Classification{Kind: KindNone}
		}
		return Classification{Kind: KindProtocolError}
	}

	return Classification{
		Kind:       c.kindForStatus(t.StatusCode),
		RetryAfter: c.retryAfter(t.Header),
	}
}

func (c *Classifier) kindForStatus(status int) ErrorKind {
	if c.StatusOverrides != nil {
		if kind, ok := c.StatusOverrides[status]; ok && kind != KindNone {
			return kind
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthExpired
	case status >= 500 && status < 600:
		return KindTransient
	default:
		// Remaining 4xx plus stray 1xx/3xx the HTTP client did not resolve.
		return KindClientError
	}
}

func (c *Classifier) retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return ParseRetryAfter(h.Get("Retry-After"), now())
}

// ParseRetryAfter parses a Retry-After value given as delta-seconds or an
// HTTP date. Invalid or past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func classifyTransportError(err error) Classification {
	// The request never left the host: safe to repeat for any idempotency class.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Classification{Kind: KindTransient}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return Classification{Kind: KindTransient}
	}

	// Timeouts, resets, truncated responses and anything unrecognised: the
	// request may have been delivered.
	return Classification{Kind: KindTransient, Ambiguous: true}
}

// IsTimeout reports whether a transport error was a timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
