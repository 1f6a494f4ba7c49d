package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestClassifyStatusTable(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"200 json", 200, `{"status":200}`, KindNone},
		{"204 empty", 204, "", KindNone},
		{"200 whitespace", 200, "  \n", KindNone},
		{"200 html", 200, "<html>oops</html>", KindProtocolError},
		{"200 truncated json", 200, `{"results":[`, KindProtocolError},
		{"301", 301, "", KindClientError},
		{"400", 400, `{"error":"bad"}`, KindClientError},
		{"401", 401, "", KindAuthExpired},
		{"403", 403, "", KindAuthExpired},
		{"404", 404, "", KindClientError},
		{"409", 409, "", KindClientError},
		{"429", 429, "", KindRateLimited},
		{"500", 500, "", KindTransient},
		{"502", 502, "<html>bad gateway</html>", KindTransient},
		{"503", 503, "", KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(TransportOutcome{StatusCode: tt.status, Body: []byte(tt.body)})
			if got.Kind != tt.want {
				t.Errorf("Classify(%d) = %v, want %v", tt.status, got.Kind, tt.want)
			}
			if got.Ambiguous {
				t.Errorf("Classify(%d) should not be ambiguous: a response was received", tt.status)
			}
		})
	}
}

func TestClassifyStatusOverrides(t *testing.T) {
	c := &Classifier{StatusOverrides: map[int]ErrorKind{
		http.StatusForbidden: KindClientError,
		http.StatusConflict:  KindTransient,
	}}

	if got := c.Classify(TransportOutcome{StatusCode: 403}).Kind; got != KindClientError {
		t.Errorf("403 with override = %v, want client_error", got)
	}
	if got := c.Classify(TransportOutcome{StatusCode: 409}).Kind; got != KindTransient {
		t.Errorf("409 with override = %v, want transient", got)
	}
	if got := c.Classify(TransportOutcome{StatusCode: 401}).Kind; got != KindAuthExpired {
		t.Errorf("401 without override = %v, want auth_expired", got)
	}
}

func TestClassifyTransportErrors(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name          string
		err           error
		wantAmbiguous bool
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "api.example.com"}, false},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, false},
		{"read reset", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("Get: %w", context.DeadlineExceeded), true},
		{"unknown", errors.New("unexpected EOF"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(TransportOutcome{Err: tt.err})
			if got.Kind != KindTransient {
				t.Errorf("Kind = %v, want transient", got.Kind)
			}
			if got.Ambiguous != tt.wantAmbiguous {
				t.Errorf("Ambiguous = %v, want %v", got.Ambiguous, tt.wantAmbiguous)
			}
		})
	}
}

func TestClassifyNoStatusNoError(t *testing.T) {
	got := DefaultClassifier().Classify(TransportOutcome{})
	if got.Kind != KindTransient || !got.Ambiguous {
		t.Errorf("Classify(empty) = %+v, want ambiguous transient", got)
	}
}

func TestClassifyRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Classifier{Now: func() time.Time { return now }}

	h := http.Header{}
	h.Set("Retry-After", "7")
	got := c.Classify(TransportOutcome{StatusCode: 429, Header: h})
	if got.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", got.RetryAfter)
	}

	h.Set("Retry-After", now.Add(90*time.Second).Format(http.TimeFormat))
	got = c.Classify(TransportOutcome{StatusCode: 503, Header: h})
	if got.RetryAfter != 90*time.Second {
		t.Errorf("RetryAfter (date) = %v, want 90s", got.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"-3", 0},
		{"2", 2 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"soon", 0},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{now.Add(time.Minute).Format(http.TimeFormat), time.Minute},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.value, now); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("DeadlineExceeded should be a timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Error("plain error is not a timeout")
	}
	if !IsTimeout(&net.DNSError{IsTimeout: true}) {
		t.Error("DNS timeout should be a timeout")
	}
}
