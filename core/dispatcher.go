package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Executor runs one logical request to a terminal Outcome.
type Executor interface {
	Execute(ctx context.Context, req LogicalRequest) Outcome
}

// Dispatcher executes logical requests against the remote service: it attaches
// the credential, performs the exchange, classifies the result and retries
// according to its BackoffPolicy.
//
// Dispatcher is safe for concurrent use. Concurrent Execute calls share no
// mutable state; each call's attempt history is local to that call.
type Dispatcher struct {
	baseURL        string
	creds          CredentialProvider
	httpClient     *http.Client
	backoff        BackoffPolicy
	classifier     *Classifier
	telemetry      TelemetryHook
	attemptTimeout time.Duration
	authHeader     string
	authScheme     string
	userAgent      string
	headers        http.Header
	limiter        *rate.Limiter

	sleep        func(ctx context.Context, d time.Duration) error
	newRequestID func() string
}

// DefaultAttemptTimeout bounds a single network exchange.
const DefaultAttemptTimeout = 30 * time.Second

// NewDispatcher creates a dispatcher for the service rooted at baseURL.
func NewDispatcher(baseURL string, creds CredentialProvider, opts ...DispatcherOption) (*Dispatcher, error) {
	if creds == nil {
		return nil, errors.New("core: credential provider is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("core: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("core: base URL %q must be http or https", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("core: base URL %q must not carry a query or fragment", baseURL)
	}

	d := &Dispatcher{
		baseURL:        strings.TrimRight(u.String(), "/"),
		creds:          creds,
		httpClient:     http.DefaultClient,
		backoff:        DefaultBackoffPolicy(),
		classifier:     DefaultClassifier(),
		telemetry:      NoopTelemetryHook{},
		attemptTimeout: DefaultAttemptTimeout,
		authHeader:     "Authorization",
		authScheme:     "Bearer",
		headers:        make(http.Header),
		sleep:          sleepContext,
		newRequestID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// BaseURL returns the service root without a trailing slash.
func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

// Execute runs req to a terminal Outcome, blocking the calling goroutine for
// the whole retry loop.
//
// ctx governs admission and backoff waits only. An exchange already in flight
// is never aborted by ctx, because the service may have applied a mutation;
// it is bounded by the attempt timeout instead. Execute panics if req fails
// Validate.
func (d *Dispatcher) Execute(ctx context.Context, req LogicalRequest) Outcome {
	req.mustValidate()
	requestID := d.newRequestID()

	if err := ctx.Err(); err != nil {
		return cancelledFor(context.Cause(ctx), requestID)
	}

	token, err := d.creds.Token(ctx)
	if ctx.Err() != nil {
		return cancelledFor(context.Cause(ctx), requestID)
	}
	if err != nil || token.IsEmpty() {
		return failure(credentialFailure(err, requestID), 0)
	}

	var body []byte
	if req.Body != nil {
		// Validate already proved the body encodes.
		body, _ = json.Marshal(req.Body)
	}
	target := d.resolve(req)
	var history []AttemptRecord

	if err := d.waitForRateLimit(ctx); err != nil {
		return cancelledFor(err, requestID)
	}

	for attempt := 1; ; attempt++ {
		start := time.Now()
		t := d.exchange(ctx, req, target, body, token, requestID)
		elapsed := time.Since(start)

		var be *buildError
		if errors.As(t.Err, &be) {
			return failure(&Failure{
				Kind:      KindClientError,
				Message:   be.Error(),
				RequestID: requestID,
				Err:       be.err,
			}, attempt-1)
		}

		c := d.classifier.Classify(t)
		event := AttemptEvent{
			Operation:  req.name(),
			RequestID:  requestID,
			Attempt:    attempt,
			Kind:       c.Kind,
			StatusCode: t.StatusCode,
			Ambiguous:  c.Ambiguous,
			Elapsed:    elapsed,
		}

		if c.Success() {
			event.Final = true
			d.telemetry.OnAttempt(event)
			return success(t.StatusCode, t.Body, attempt, requestID)
		}

		f := newFailure(t, c, requestID)
		history = append(history, AttemptRecord{Attempt: attempt, Kind: c.Kind})

		// A non-idempotent request that failed without a confirmed response
		// might already be applied. Repeating it could duplicate the effect.
		if c.Ambiguous && req.Idempotency == NotSafeToRetry {
			f.Kind = KindTransient
			f.Ambiguous = true
			f.Message += "; outcome unknown, not retried"
			event.Final = true
			d.telemetry.OnAttempt(event)
			return failure(f, attempt)
		}

		wait, retry := d.backoff.NextDelay(attempt, c.Kind, c.RetryAfter)
		if !retry {
			if c.Kind.Retryable() {
				f.Message += "; gave up after " + summarize(history)
			}
			event.Final = true
			d.telemetry.OnAttempt(event)
			return failure(f, attempt)
		}

		history[len(history)-1].Wait = wait

		// The attempt is reported once the next one is certain, so an
		// abandoned wait still ends with a final event.
		err := d.sleep(ctx, wait)
		if err == nil {
			err = d.waitForRateLimit(ctx)
		}
		if err != nil {
			f.Message += "; retry abandoned: " + err.Error()
			event.Final = true
			d.telemetry.OnAttempt(event)
			return failure(f, attempt)
		}
		event.Wait = wait
		d.telemetry.OnAttempt(event)
	}
}

// ExecuteAsync runs req on its own goroutine and delivers the Outcome on the
// returned channel, which receives exactly one value and is then closed.
// The Outcome is identical to what Execute would return.
func (d *Dispatcher) ExecuteAsync(ctx context.Context, req LogicalRequest) <-chan Outcome {
	req.mustValidate()
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- d.Execute(ctx, req)
	}()
	return ch
}

// exchange performs exactly one network round trip.
func (d *Dispatcher) exchange(ctx context.Context, req LogicalRequest, target string, body []byte, token Secret, requestID string) TransportOutcome {
	// Detach from caller cancellation; only the attempt timeout may cut an
	// exchange short.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.attemptTimeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(actx, req.Method, target, rdr)
	if err != nil {
		return TransportOutcome{Err: &buildError{err: err}}
	}

	d.applyHeaders(httpReq, req, body != nil, token, requestID)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return TransportOutcome{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportOutcome{Err: err}
	}

	return TransportOutcome{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}
}

func (d *Dispatcher) applyHeaders(httpReq *http.Request, req LogicalRequest, hasBody bool, token Secret, requestID string) {
	h := httpReq.Header
	h.Set("Accept", "application/json")
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	if d.userAgent != "" {
		h.Set("User-Agent", d.userAgent)
	}
	h.Set("X-Request-Id", requestID)

	for key, values := range d.headers {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	for key, values := range req.Header {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}

	// Auth goes last so no extra header can replace it.
	if d.authScheme != "" {
		h.Set(d.authHeader, d.authScheme+" "+token.Expose())
	} else {
		h.Set(d.authHeader, token.Expose())
	}
}

func (d *Dispatcher) resolve(req LogicalRequest) string {
	target := d.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	return target
}

func (d *Dispatcher) waitForRateLimit(ctx context.Context) error {
	if d.limiter == nil {
		return ctx.Err()
	}
	return d.limiter.Wait(ctx)
}

// buildError marks a request that could not be constructed locally.
type buildError struct{ err error }

func (e *buildError) Error() string { return "build request: " + e.err.Error() }
func (e *buildError) Unwrap() error { return e.err }

func newFailure(t TransportOutcome, c Classification, requestID string) *Failure {
	f := &Failure{
		Kind:           c.Kind,
		LastStatusCode: t.StatusCode,
		RequestID:      requestID,
		Ambiguous:      c.Ambiguous,
		RetryAfter:     c.RetryAfter,
	}

	switch {
	case t.Err != nil:
		if IsTimeout(t.Err) {
			f.Message = "request timed out"
		} else {
			f.Message = "transport error"
		}
		f.Err = t.Err
	case c.Kind == KindProtocolError:
		f.Message = "malformed response body"
	default:
		f.Message = responseMessage(t.StatusCode, t.Body)
	}
	return f
}

func cancelledFor(cause error, requestID string) Outcome {
	out := cancelledOutcome(cause)
	out.RequestID = requestID
	out.Err.RequestID = requestID
	return out
}

func credentialFailure(err error, requestID string) *Failure {
	msg := "no credential available"
	if err != nil && !errors.Is(err, ErrNoCredential) {
		msg = "credential provider: " + err.Error()
	}
	if err == nil {
		err = ErrNoCredential
	}
	return &Failure{
		Kind:      KindAuthExpired,
		Message:   msg,
		RequestID: requestID,
		Err:       err,
	}
}

// responseMessage extracts a human message from an error body, falling back
// to the status text. Supports {"error": "..."}, {"error": {"message": "..."}},
// {"message": "..."} and {"meta": {"message": "..."}}.
func responseMessage(status int, body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Meta    struct {
			Message string `json:"message"`
		} `json:"meta"`
	}
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		if len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if env.Message != "" {
			return env.Message
		}
		if env.Meta.Message != "" {
			return env.Meta.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// summarize renders the retry history, e.g. "3 attempts [transient rate_limited(2s) transient]".
func summarize(history []AttemptRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d attempts [", len(history))
	for i, r := range history {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.Kind.String())
		if r.Wait > 0 && i < len(history)-1 {
			fmt.Fprintf(&b, "(%s)", r.Wait)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
