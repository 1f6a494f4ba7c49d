package tinder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/petal-labs/swipe/core"
)

// Client is a typed front end for the Tinder REST API.
// Client is safe for concurrent use.
type Client struct {
	config     Config
	dispatcher *core.Dispatcher
}

// New creates a client that reads its token from creds on every request.
func New(creds core.CredentialProvider, opts ...Option) (*Client, error) {
	cfg := Config{
		BaseURL:    DefaultBaseURL,
		GatewayURL: DefaultGatewayURL,
		HTTPClient: http.DefaultClient,
		AuthHeader: DefaultAuthHeader,
		AppVersion: DefaultAppVersion,
		Platform:   DefaultPlatform,
		UserAgent:  DefaultUserAgent,
		Locale:     DefaultLocale,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	dopts := []core.DispatcherOption{
		core.WithHTTPClient(cfg.HTTPClient),
		core.WithAuthHeader(cfg.AuthHeader, cfg.AuthScheme),
		core.WithUserAgent(cfg.UserAgent),
		core.WithHeader("app_version", cfg.AppVersion),
		core.WithHeader("platform", cfg.Platform),
		core.WithBackoffPolicy(cfg.Backoff),
		core.WithClassifier(cfg.Classifier),
		core.WithTelemetry(cfg.Telemetry),
		core.WithAttemptTimeout(cfg.Timeout),
		core.WithRateLimit(cfg.RequestsPerMinute, cfg.Burst),
		core.WithHeaders(cfg.Headers),
	}

	d, err := core.NewDispatcher(cfg.BaseURL, creds, dopts...)
	if err != nil {
		return nil, fmt.Errorf("tinder: %w", err)
	}
	return &Client{config: cfg, dispatcher: d}, nil
}

// Dispatcher exposes the underlying executor for callers that build their
// own LogicalRequests or batches.
func (c *Client) Dispatcher() *core.Dispatcher {
	return c.dispatcher
}

// do executes req and decodes a successful body into v (which may be nil).
func (c *Client) do(ctx context.Context, req core.LogicalRequest, v any) error {
	out := c.dispatcher.Execute(ctx, req)
	return out.Decode(v)
}

func (c *Client) batchOptions() core.BatchOptions {
	return core.BatchOptions{
		MaxConcurrency: c.config.Concurrency,
		Mode:           c.config.BatchMode,
	}
}
