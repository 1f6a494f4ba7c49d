package tinder

import (
	"net/http"
	"time"

	"github.com/petal-labs/swipe/core"
)

// Defaults taken from the iOS client the service expects.
const (
	DefaultBaseURL    = "https://api.gotinder.com"
	DefaultGatewayURL = "wss://keepalive.gotinder.com/ws"
	DefaultAppVersion = "6.9.4"
	DefaultPlatform   = "ios"
	DefaultUserAgent  = "Tinder/7.5.3 (iPhone; iOS 10.3.2; Scale/2.00)"
	DefaultLocale     = "en"
	DefaultAuthHeader = "X-Auth-Token"
)

// Config holds configuration for the Tinder client.
type Config struct {
	// BaseURL is the API base URL. Defaults to https://api.gotinder.com
	BaseURL string

	// GatewayURL is the realtime websocket endpoint.
	GatewayURL string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// AuthHeader carries the token; AuthScheme prefixes it when non-empty.
	AuthHeader string
	AuthScheme string

	// AppVersion, Platform and UserAgent identify the client to the service.
	AppVersion string
	Platform   string
	UserAgent  string

	// Locale is sent on endpoints that accept one.
	Locale string

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout bounds a single network attempt.
	Timeout time.Duration

	Backoff    core.BackoffPolicy
	Classifier *core.Classifier
	Telemetry  core.TelemetryHook

	// RequestsPerMinute and Burst pace outgoing attempts; zero disables pacing.
	RequestsPerMinute float64
	Burst             int

	// Concurrency bounds batch helpers such as LikeAll.
	Concurrency int
	BatchMode   core.BatchMode
}

// Option configures the Tinder client.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithGatewayURL sets the realtime websocket endpoint.
func WithGatewayURL(url string) Option {
	return func(c *Config) {
		c.GatewayURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithAuthHeader overrides the header that carries the token.
func WithAuthHeader(name, scheme string) Option {
	return func(c *Config) {
		c.AuthHeader = name
		c.AuthScheme = scheme
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithLocale sets the locale query parameter.
func WithLocale(locale string) Option {
	return func(c *Config) {
		c.Locale = locale
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithBackoff sets the retry policy.
func WithBackoff(p core.BackoffPolicy) Option {
	return func(c *Config) {
		c.Backoff = p
	}
}

// WithClassifier sets the error classifier.
func WithClassifier(cl *core.Classifier) Option {
	return func(c *Config) {
		c.Classifier = cl
	}
}

// WithTelemetry sets the attempt hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		c.Telemetry = h
	}
}

// WithRateLimit paces attempts.
func WithRateLimit(requestsPerMinute float64, burst int) Option {
	return func(c *Config) {
		c.RequestsPerMinute = requestsPerMinute
		c.Burst = burst
	}
}

// WithConcurrency bounds batch helpers.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithBatchMode selects the batch execution model.
func WithBatchMode(m core.BatchMode) Option {
	return func(c *Config) {
		c.BatchMode = m
	}
}
