package core

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient sets the HTTP client. Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithBackoffPolicy sets the retry policy.
func WithBackoffPolicy(p BackoffPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		if p != nil {
			d.backoff = p
		}
	}
}

// WithClassifier sets the error classifier.
func WithClassifier(c *Classifier) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.classifier = c
		}
	}
}

// WithTelemetry sets the attempt hook.
func WithTelemetry(h TelemetryHook) DispatcherOption {
	return func(d *Dispatcher) {
		if h != nil {
			d.telemetry = h
		}
	}
}

// WithAttemptTimeout bounds each network exchange. Defaults to 30s.
func WithAttemptTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.attemptTimeout = timeout
		}
	}
}

// WithAuthHeader sets the header that carries the token. An empty scheme
// sends the bare token, e.g. WithAuthHeader("X-Auth-Token", "").
func WithAuthHeader(name, scheme string) DispatcherOption {
	return func(d *Dispatcher) {
		if name != "" {
			d.authHeader = name
		}
		d.authScheme = scheme
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) DispatcherOption {
	return func(d *Dispatcher) {
		d.headers.Set(key, value)
	}
}

// WithHeaders adds every value of h to each request, replacing earlier
// values for the same keys.
func WithHeaders(h http.Header) DispatcherOption {
	return func(d *Dispatcher) {
		for key, values := range h {
			d.headers.Del(key)
			for _, v := range values {
				d.headers.Add(key, v)
			}
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) DispatcherOption {
	return func(d *Dispatcher) {
		d.userAgent = ua
	}
}

// WithRateLimit paces attempts to requestsPerMinute with the given burst.
// Non-positive values disable pacing.
func WithRateLimit(requestsPerMinute float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = buildLimiter(requestsPerMinute, burst)
	}
}

// WithLimiter shares an existing limiter, e.g. between dispatchers that use
// the same account.
func WithLimiter(l *rate.Limiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = l
	}
}

// withSleep replaces the backoff wait; tests use it to record delays.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) DispatcherOption {
	return func(d *Dispatcher) {
		d.sleep = sleep
	}
}

// withRequestIDs replaces the request id generator.
func withRequestIDs(next func() string) DispatcherOption {
	return func(d *Dispatcher) {
		d.newRequestID = next
	}
}

func buildLimiter(requestsPerMinute float64, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
}
