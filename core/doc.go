// Package core executes logical requests against a remote REST service with
// credential injection, failure classification, bounded retries and bounded
// concurrent batches.
//
// # Dispatcher
//
// A [Dispatcher] turns one [LogicalRequest] into one [Outcome], performing as
// many network attempts as its [BackoffPolicy] allows:
//
//	d, err := core.NewDispatcher("https://api.example.com", core.StaticCredentials(token),
//	    core.WithAuthHeader("X-Auth-Token", ""),
//	    core.WithTelemetry(hook),
//	)
//	out := d.Execute(ctx, core.LogicalRequest{
//	    Operation:   "profile",
//	    Method:      http.MethodGet,
//	    Path:        "/profile",
//	    Idempotency: core.SafeToRetry,
//	})
//	if !out.OK() {
//	    return out.Err
//	}
//
// Expected failures are values, never panics: an Outcome carries either a
// status and body or a [*Failure] whose [ErrorKind] says what went wrong.
// Use errors.Is with the kind sentinels ([ErrAuthExpired], [ErrRateLimited],
// ...) to branch on them.
//
// # Retries
//
// Only [KindTransient] and [KindRateLimited] failures are retried. Requests
// marked [NotSafeToRetry] are never repeated after an ambiguous failure (a
// timeout or dropped connection after the request was sent); they resolve as
// a Transient failure with Ambiguous set, and the caller decides.
//
// # Batches
//
// [RunBatch] runs many requests with bounded concurrency and returns results
// in input order. Cancelling its context stops admission; requests already on
// the wire finish their current attempt.
//
// # Telemetry
//
// The package never logs. It reports each attempt to a [TelemetryHook]; wrap
// slow sinks with [NewAsyncHook].
package core
