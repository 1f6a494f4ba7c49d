package commands

import (
	"context"
	"fmt"

	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/credentials"
	"github.com/petal-labs/swipe/telemetry"
	"github.com/petal-labs/swipe/tinder"
)

// credentials resolves the token source: the environment (and .env files),
// then the keystore, then redis when configured.
func (a *App) credentials(ctx context.Context) (core.CredentialProvider, error) {
	if a.creds != nil {
		return a.creds, nil
	}

	chain := credentials.Chain{credentials.FromEnv(a.cfg.EnvFiles...)}

	if ks, err := a.newKeystore(); err != nil {
		a.logger.Debug("keystore unavailable", "error", err)
	} else {
		chain = append(chain, credentials.Keystore{Store: ks, Name: a.cfg.TokenName()})
	}

	if a.cfg.Redis.URL != "" {
		rdb, err := credentials.NewRedisClient(ctx, a.cfg.Redis.URL)
		if err != nil {
			return nil, exitWithCode(ExitNetwork, err)
		}
		a.onClose(func() { _ = rdb.Close() })
		chain = append(chain, credentials.Redis{Client: rdb, Key: a.cfg.Redis.Key})
	}
	return chain, nil
}

// telemetry returns the attempt hook for this run. Sinks are fed through an
// AsyncHook so slow writers never hold up a request.
func (a *App) telemetry() core.TelemetryHook {
	hooks := core.MultiHook{telemetry.NewSlogHook(a.logger)}
	if a.metrics != nil {
		hooks = append(hooks, a.metrics)
	}
	async := core.NewAsyncHook(hooks, 0)
	a.onClose(async.Close)
	return async
}

// client builds an API client from the loaded config and global flags.
func (a *App) client(ctx context.Context) (*tinder.Client, error) {
	creds, err := a.credentials(ctx)
	if err != nil {
		return nil, err
	}

	cfg := a.cfg
	opts := []tinder.Option{
		tinder.WithBackoff(core.NewBackoffPolicy(cfg.Backoff())),
		tinder.WithTelemetry(a.telemetry()),
		tinder.WithConcurrency(a.concurrency),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, tinder.WithBaseURL(cfg.BaseURL))
	}
	if cfg.AuthHeader != "" {
		opts = append(opts, tinder.WithAuthHeader(cfg.AuthHeader, ""))
	}
	if cfg.AttemptTimeout > 0 {
		opts = append(opts, tinder.WithTimeout(cfg.AttemptTimeout))
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		opts = append(opts, tinder.WithRateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))
	}

	c, err := a.newClient(creds, opts...)
	if err != nil {
		return nil, exitWithCode(ExitValidation, fmt.Errorf("create client: %w", err))
	}
	return c, nil
}
