package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petal-labs/swipe/cli/config"
	"github.com/petal-labs/swipe/cli/keystore"
	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/tinder"
)

// memKeystore is an in-memory keystore.Keystore.
type memKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKeystore() *memKeystore {
	return &memKeystore{data: make(map[string]string)}
}

func (m *memKeystore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = value
	return nil
}

func (m *memKeystore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[name]
	if !ok {
		return "", &keystore.ErrKeyNotFound{Name: name}
	}
	return v, nil
}

func (m *memKeystore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; !ok {
		return &keystore.ErrKeyNotFound{Name: name}
	}
	delete(m.data, name)
	return nil
}

func (m *memKeystore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// syncBuffer is a bytes.Buffer safe for the log goroutine and the command
// to write concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Bytes() []byte {
	return []byte(b.String())
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type testApp struct {
	app    *App
	stdout *syncBuffer
	stderr *syncBuffer
	ks     *memKeystore
}

// newTestApp wires an App to handler (when non-nil) with fast retries and a
// static token.
func newTestApp(t *testing.T, handler http.HandlerFunc, cfg *config.Config, opts ...AppOption) *testApp {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		cfg.BaseURL = server.URL
	}
	jitter := 0.0
	cfg.Retry = config.RetryConfig{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Jitter: &jitter}

	ta := &testApp{stdout: &syncBuffer{}, stderr: &syncBuffer{}, ks: newMemKeystore()}
	all := append([]AppOption{
		WithConfigLoader(func(string) (*config.Config, error) { return cfg, nil }),
		WithKeystoreFactory(func() (keystore.Keystore, error) { return ta.ks, nil }),
		WithCredentials(core.StaticCredentials("tok-cli")),
		WithIO(strings.NewReader(""), ta.stdout, ta.stderr),
	}, opts...)
	ta.app = NewApp(all...)
	return ta
}

func (ta *testApp) run(args ...string) error {
	ta.app.SetArgs(args...)
	return ta.app.Execute()
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func TestExitError(t *testing.T) {
	err := exitWithCode(ExitValidation, errors.New("test error"))

	if err.Error() != "test error" {
		t.Errorf("Error() = %q, want 'test error'", err.Error())
	}
	if got := exitCode(err); got != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", got, ExitValidation)
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth expired", &core.Failure{Kind: core.KindAuthExpired, LastStatusCode: 401}, ExitAuth},
		{"no credential", core.ErrNoCredential, ExitAuth},
		{"transport", &core.Failure{Kind: core.KindTransient}, ExitNetwork},
		{"server error", &core.Failure{Kind: core.KindTransient, LastStatusCode: 503}, ExitAPI},
		{"rate limited", &core.Failure{Kind: core.KindRateLimited, LastStatusCode: 429}, ExitAPI},
		{"client error", &core.Failure{Kind: core.KindClientError, LastStatusCode: 404}, ExitAPI},
		{"protocol", &core.Failure{Kind: core.KindProtocolError, LastStatusCode: 200}, ExitAPI},
		{"cancelled", &core.Failure{Kind: core.KindCancelled}, ExitNetwork},
		{"other", errors.New("boom"), ExitAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigErrorIsValidation(t *testing.T) {
	ta := newTestApp(t, nil, nil, WithConfigLoader(func(string) (*config.Config, error) {
		return nil, errors.New("bad config")
	}))

	err := ta.run("version")
	if got := exitCode(err); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
	if !strings.Contains(ta.stderr.String(), "bad config") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
}

func TestNegativeConcurrencyRejected(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	if got := exitCode(ta.run("--concurrency", "-2", "version")); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
}

func TestVersionJSON(t *testing.T) {
	ta := newTestApp(t, nil, &config.Config{BaseURL: "https://staging.example.test"})
	if err := ta.run("--json", "version"); err != nil {
		t.Fatalf("version error = %v", err)
	}

	var got versionInfo
	if err := json.Unmarshal(ta.stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode version: %v\n%s", err, ta.stdout.String())
	}
	if got.Version != "dev" || got.GoVersion == "" {
		t.Errorf("build info = %+v", got)
	}
	if got.API != "https://staging.example.test" {
		t.Errorf("api = %q, want the configured base URL", got.API)
	}
	if got.AuthHeader != tinder.DefaultAuthHeader || got.Platform != tinder.DefaultPlatform || got.AppVersion != tinder.DefaultAppVersion {
		t.Errorf("client identity = %+v", got)
	}
}

func TestVersionText(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	if err := ta.run("version"); err != nil {
		t.Fatalf("version error = %v", err)
	}
	out := ta.stdout.String()
	for _, want := range []string{"swipe dev", "auth header: X-Auth-Token", "client:      ios " + tinder.DefaultAppVersion} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}
