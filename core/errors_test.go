package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindNone, "none"},
		{KindTransient, "transient"},
		{KindRateLimited, "rate_limited"},
		{KindAuthExpired, "auth_expired"},
		{KindClientError, "client_error"},
		{KindProtocolError, "protocol_error"},
		{KindCancelled, "cancelled"},
		{ErrorKind(99), "kind(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestErrorKindRetryable(t *testing.T) {
	retryable := map[ErrorKind]bool{
		KindTransient:   true,
		KindRateLimited: true,
	}
	for k := KindNone; k <= KindCancelled; k++ {
		if got := k.Retryable(); got != retryable[k] {
			t.Errorf("%v.Retryable() = %v, want %v", k, got, retryable[k])
		}
	}
}

func TestFailureErrorsIs(t *testing.T) {
	cause := errors.New("connection reset by peer")
	f := &Failure{Kind: KindTransient, Message: "transport error", Err: cause}

	if !errors.Is(f, ErrTransient) {
		t.Error("errors.Is(f, ErrTransient) = false")
	}
	if !errors.Is(f, cause) {
		t.Error("errors.Is(f, cause) = false")
	}
	if errors.Is(f, ErrAuthExpired) {
		t.Error("errors.Is(f, ErrAuthExpired) = true")
	}

	wrapped := fmt.Errorf("like 5a1b: %w", f)
	if !errors.Is(wrapped, ErrTransient) {
		t.Error("wrapped failure lost its sentinel")
	}
	if got := KindOf(wrapped); got != KindTransient {
		t.Errorf("KindOf(wrapped) = %v, want transient", got)
	}
}

func TestFailureErrorMessage(t *testing.T) {
	f := &Failure{
		Kind:           KindTransient,
		Message:        "request timed out",
		LastStatusCode: 0,
		Ambiguous:      true,
		RequestID:      "req-1",
	}
	got := f.Error()
	for _, want := range []string{"transient: request timed out", "(outcome unknown)", "(request_id=req-1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "status=") {
		t.Errorf("Error() = %q, should omit zero status", got)
	}

	f = &Failure{Kind: KindClientError, Message: "Not Found", LastStatusCode: 404}
	if got, want := f.Error(), "client_error: Not Found (status=404)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != KindNone {
		t.Errorf("KindOf(nil) = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindNone {
		t.Errorf("KindOf(plain) = %v", got)
	}
	if got := KindOf(&Failure{Kind: KindRateLimited}); got != KindRateLimited {
		t.Errorf("KindOf(failure) = %v", got)
	}
}

func TestSentinelForEveryKind(t *testing.T) {
	if KindNone.Sentinel() != nil {
		t.Error("KindNone should have no sentinel")
	}
	for k := KindTransient; k <= KindCancelled; k++ {
		if k.Sentinel() == nil {
			t.Errorf("%v has no sentinel", k)
		}
	}
}
