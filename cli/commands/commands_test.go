package commands

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/petal-labs/swipe/cli/config"
	"github.com/petal-labs/swipe/tinder"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestRecsCommandText(t *testing.T) {
	var token string
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/recs/core" {
			t.Errorf("path = %s", r.URL.Path)
		}
		token = r.Header.Get("X-Auth-Token")
		writeJSON(w, 200, `{"data":{"results":[
			{"type":"user","user":{"_id":"u1","name":"Ana","bio":"music"}},
			{"type":"user","user":{"_id":"u2","name":"Bo"}}]}}`)
	}, nil)

	if err := ta.run("recs"); err != nil {
		t.Fatalf("recs error = %v\nstderr: %s", err, ta.stderr)
	}
	if token != "tok-cli" {
		t.Errorf("X-Auth-Token = %q", token)
	}
	out := ta.stdout.String()
	if !strings.Contains(out, "u1  Ana") || !strings.Contains(out, "u2  Bo") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRecsCommandJSON(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"status":200,"results":[{"_id":"u1","name":"Ana"}]}`)
	}, nil)

	if err := ta.run("--json", "recs", "--v1"); err != nil {
		t.Fatalf("recs error = %v", err)
	}
	var users []tinder.User
	if err := json.Unmarshal(ta.stdout.Bytes(), &users); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, ta.stdout)
	}
	if diff := cmp.Diff([]tinder.User{{ID: "u1", Name: "Ana"}}, users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}
}

func TestLikeBatchReportsEachResult(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/like/") {
		case "u1":
			writeJSON(w, 200, `{"match":{"_id":"m1"},"likes_remaining":99}`)
		case "u2":
			writeJSON(w, 404, `{"error":"user not found"}`)
		default:
			writeJSON(w, 200, `{"match":false,"likes_remaining":98}`)
		}
	}, nil)

	err := ta.run("like", "u1", "u2", "u3")
	if got := exitCode(err); got != ExitAPI {
		t.Fatalf("exit code = %d, want %d (err %v)", got, ExitAPI, err)
	}

	lines := strings.Split(strings.TrimSpace(ta.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("stdout lines = %q", lines)
	}
	checks := []string{"u1  it's a match!", "u2  failed: client_error: user not found", "u3  ok"}
	for i, want := range checks {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
	if !strings.Contains(ta.stderr.String(), "1 of 3 swipes failed") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
}

func TestLikeAuthExpired(t *testing.T) {
	var hits atomic.Int32
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, 401, `{"error":"token expired"}`)
	}, nil)

	err := ta.run("like", "u1")
	if got := exitCode(err); got != ExitAuth {
		t.Fatalf("exit code = %d, want %d", got, ExitAuth)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, auth failures must not be retried", hits.Load())
	}
	if !strings.Contains(ta.stderr.String(), "swipe keys set") {
		t.Errorf("stderr should suggest refreshing the token: %q", ta.stderr.String())
	}
}

func TestPassJSON(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/pass/") {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, 200, `{"status":200}`)
	}, nil)

	if err := ta.run("--json", "--concurrency", "1", "pass", "a", "b"); err != nil {
		t.Fatalf("pass error = %v", err)
	}
	var reports []swipeReport
	if err := json.Unmarshal(ta.stdout.Bytes(), &reports); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	want := []swipeReport{
		{UserID: "a", Action: "pass", Attempts: 1},
		{UserID: "b", Action: "pass", Attempts: 1},
	}
	if diff := cmp.Diff(want, reports); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}
}

func TestMessageCommand(t *testing.T) {
	var body map[string]string
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/user/matches/m1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, `{"_id":"msg1","match_id":"m1","message":"hi there"}`)
	}, nil)

	if err := ta.run("message", "m1", "hi", "there"); err != nil {
		t.Fatalf("message error = %v", err)
	}
	if body["message"] != "hi there" {
		t.Errorf("sent body = %v", body)
	}
	if !strings.Contains(ta.stdout.String(), "Message sent (msg1).") {
		t.Errorf("stdout = %q", ta.stdout.String())
	}
}

func TestMessageServerErrorJSON(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, `{"error":"internal"}`)
	}, &config.Config{LogLevel: "error"})

	err := ta.run("--json", "message", "m1", "hello")
	if got := exitCode(err); got != ExitAPI {
		t.Fatalf("exit code = %d, want %d", got, ExitAPI)
	}

	var out struct {
		Error struct {
			Type      string `json:"type"`
			Status    int    `json:"status"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(ta.stderr.Bytes(), &out); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, ta.stderr)
	}
	if out.Error.Type != "transient" || out.Error.Status != 500 || out.Error.RequestID == "" {
		t.Errorf("error JSON = %+v", out.Error)
	}
}

func TestMessageRejectsBlankText(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, nil)
	if got := exitCode(ta.run("message", "m1", "  ")); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
}

func TestNetworkErrorExitCode(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ta := newTestApp(t, nil, &config.Config{BaseURL: "http://" + addr})
	if got := exitCode(ta.run("profile")); got != ExitNetwork {
		t.Errorf("exit code = %d, want %d\nstderr: %s", got, ExitNetwork, ta.stderr)
	}
}

func TestLocationCommands(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var travel map[string]float64
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/passport/user/travel" {
			_ = json.NewDecoder(r.Body).Decode(&travel)
		}
		writeJSON(w, 200, `{"status":200}`)
	}, nil)

	if err := ta.run("location", "set", "48.8566", "2.3522"); err != nil {
		t.Fatalf("location set error = %v", err)
	}
	if travel["lat"] != 48.8566 || travel["lon"] != 2.3522 {
		t.Errorf("travel body = %v", travel)
	}

	if err := ta.run("location", "reset"); err != nil {
		t.Fatalf("location reset error = %v", err)
	}

	want := []string{"POST /passport/user/travel", "POST /passport/user/reset"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestLocationSetValidation(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, nil)

	for _, args := range [][]string{{"100", "0"}, {"0", "east"}} {
		if got := exitCode(ta.run(append([]string{"location", "set"}, args...)...)); got != ExitValidation {
			t.Errorf("location set %v exit code = %d, want %d", args, got, ExitValidation)
		}
	}
}

func TestMatchesCommand(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("count") != "5" || q.Get("message") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		writeJSON(w, 200, `{"data":{"matches":[
			{"_id":"m1","person":{"_id":"u1","name":"Ana"},"messages":[{"_id":"x","message":"hey"}],
			 "last_activity_date":"2026-03-01T10:00:00Z"}]}}`)
	}, nil)

	if err := ta.run("matches", "--count", "5", "--messages"); err != nil {
		t.Fatalf("matches error = %v", err)
	}
	if want := "m1  Ana  active 2026-03-01  1 messages"; !strings.Contains(ta.stdout.String(), want) {
		t.Errorf("stdout = %q, want %q", ta.stdout.String(), want)
	}

	if got := exitCode(ta.run("matches", "--count", "0")); got != ExitValidation {
		t.Errorf("--count 0 exit code = %d, want %d", got, ExitValidation)
	}
}

func TestUserCommand(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/u9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, 200, `{"results":{"_id":"u9","name":"Kim","bio":"line one\nline two","photos":[{"id":"p1","url":"https://img/p1.jpg"}]}}`)
	}, nil)

	if err := ta.run("user", "u9"); err != nil {
		t.Fatalf("user error = %v", err)
	}
	out := ta.stdout.String()
	for _, want := range []string{"Kim (u9)", "bio:      line one line two", "photo:    https://img/p1.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestProfileNoCredential(t *testing.T) {
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request sent without a token")
	}, nil, WithCredentials(nil))
	t.Setenv("TINDER_AUTH_TOKEN", "")

	if got := exitCode(ta.run("profile")); got != ExitAuth {
		t.Errorf("exit code = %d, want %d\nstderr: %s", got, ExitAuth, ta.stderr)
	}
}

func TestProfileFromKeystore(t *testing.T) {
	var token string
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Auth-Token")
		writeJSON(w, 200, `{"_id":"me","name":"Sam","age_filter_min":25,"age_filter_max":35,"distance_filter":10}`)
	}, &config.Config{TokenRef: "work"}, WithCredentials(nil))
	t.Setenv("TINDER_AUTH_TOKEN", "")
	_ = ta.ks.Set("work", "tok-from-keystore")

	if err := ta.run("profile"); err != nil {
		t.Fatalf("profile error = %v\nstderr: %s", err, ta.stderr)
	}
	if token != "tok-from-keystore" {
		t.Errorf("X-Auth-Token = %q", token)
	}
	if !strings.Contains(ta.stdout.String(), "ages:     25-35") {
		t.Errorf("stdout = %q", ta.stdout.String())
	}
}

func TestKeysLifecycle(t *testing.T) {
	ta := newTestApp(t, nil, nil, WithIO(strings.NewReader("tok-123\n"), nil, nil))

	if err := ta.run("keys", "set"); err != nil {
		t.Fatalf("keys set error = %v", err)
	}
	if v, _ := ta.ks.Get("tinder"); v != "tok-123" {
		t.Errorf("stored token = %q", v)
	}
	if strings.Contains(ta.stdout.String(), "tok-123") {
		t.Error("keys set printed the token")
	}

	ta.stdout.Reset()
	if err := ta.run("keys", "list"); err != nil {
		t.Fatalf("keys list error = %v", err)
	}
	if !strings.Contains(ta.stdout.String(), "  - tinder") {
		t.Errorf("keys list = %q", ta.stdout.String())
	}

	if err := ta.run("keys", "delete", "tinder"); err != nil {
		t.Fatalf("keys delete error = %v", err)
	}
	if got := exitCode(ta.run("keys", "delete", "tinder")); got != ExitValidation {
		t.Errorf("second delete exit code = %d, want %d", got, ExitValidation)
	}
}

func TestKeysSetRejectsEmpty(t *testing.T) {
	ta := newTestApp(t, nil, nil, WithIO(strings.NewReader("\n"), nil, nil))
	if got := exitCode(ta.run("keys", "set", "work")); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
}

func TestKeysPushRequiresRedis(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	if got := exitCode(ta.run("keys", "push")); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swipe", "config.yaml")
	var stdout, stderr strings.Builder
	app := NewApp(WithIO(strings.NewReader(""), &stdout, &stderr))

	app.SetArgs("--config", path, "init", "--token-ref", "work")
	if err := app.Execute(); err != nil {
		t.Fatalf("init error = %v\n%s", err, stderr.String())
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.TokenName() != "work" || cfg.Concurrency != 4 {
		t.Errorf("config = %+v", cfg)
	}
	if diff := cmp.Diff([]string{"music"}, cfg.Auto.Keywords); diff != "" {
		t.Errorf("auto keywords mismatch (-want +got):\n%s", diff)
	}
	if b := cfg.Backoff(); b.MaxAttempts != 4 || b.Jitter != 0.25 {
		t.Errorf("backoff = %+v", b)
	}

	again := NewApp(WithIO(strings.NewReader(""), &stdout, &stderr))
	again.SetArgs("--config", path, "init")
	if got := exitCode(again.Execute()); got != ExitValidation {
		t.Errorf("init over existing file exit code = %d, want %d", got, ExitValidation)
	}
}

func TestValidateTokenRef(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"tinder", false},
		{"work_2", false},
		{"", true},
		{"1st", true},
		{"a b", true},
	}
	for _, tt := range tests {
		if err := validateTokenRef(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("validateTokenRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

// autoServer serves teasers, recommendations and swipes, recording swipes.
type autoServer struct {
	mu     sync.Mutex
	liked  []string
	passed []string
}

func (s *autoServer) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/v2/fast-match/teasers":
		writeJSON(w, 200, `{"data":{"results":[{"type":"gold","user":{"photos":[{"id":"p9"}]}}]}}`)
	case r.URL.Path == "/v2/recs/core":
		writeJSON(w, 200, `{"data":{"results":[
			{"type":"user","user":{"_id":"u1","name":"Ana","bio":"Loves MUSIC"}},
			{"type":"user","user":{"_id":"u2","name":"Bo","photos":[{"id":"p9"}]}},
			{"type":"user","user":{"_id":"u3","name":"Cy","bio":"cats"}}]}}`)
	case strings.HasPrefix(r.URL.Path, "/like/"):
		s.mu.Lock()
		s.liked = append(s.liked, strings.TrimPrefix(r.URL.Path, "/like/"))
		s.mu.Unlock()
		writeJSON(w, 200, `{"match":false,"likes_remaining":90}`)
	case strings.HasPrefix(r.URL.Path, "/pass/"):
		s.mu.Lock()
		s.passed = append(s.passed, strings.TrimPrefix(r.URL.Path, "/pass/"))
		s.mu.Unlock()
		writeJSON(w, 200, `{"status":200}`)
	default:
		writeJSON(w, 404, `{"error":"not found"}`)
	}
}

func TestAutoOnce(t *testing.T) {
	srv := &autoServer{}
	ta := newTestApp(t, srv.handle, nil)

	if err := ta.run("--json", "auto", "--once", "--pass-others"); err != nil {
		t.Fatalf("auto error = %v\nstderr: %s", err, ta.stderr)
	}

	sort.Strings(srv.liked)
	if diff := cmp.Diff([]string{"u1", "u2"}, srv.liked); diff != "" {
		t.Errorf("liked mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"u3"}, srv.passed); diff != "" {
		t.Errorf("passed mismatch (-want +got):\n%s", diff)
	}

	var out struct {
		Round int       `json:"round"`
		Stats autoStats `json:"stats"`
	}
	if err := json.Unmarshal(ta.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, ta.stdout)
	}
	want := autoStats{Seen: 3, Liked: 2, Passed: 1}
	if out.Round != 1 || out.Stats != want {
		t.Errorf("round %d stats = %+v, want %+v", out.Round, out.Stats, want)
	}
}

func TestAutoKeywordsFromConfig(t *testing.T) {
	srv := &autoServer{}
	cfg := &config.Config{Auto: config.AutoConfig{Keywords: []string{"cats"}}}
	ta := newTestApp(t, srv.handle, cfg)

	if err := ta.run("auto", "--once"); err != nil {
		t.Fatalf("auto error = %v", err)
	}
	sort.Strings(srv.liked)
	if diff := cmp.Diff([]string{"u2", "u3"}, srv.liked); diff != "" {
		t.Errorf("liked mismatch (-want +got):\n%s", diff)
	}
	if len(srv.passed) != 0 {
		t.Errorf("passed = %v, want none without --pass-others", srv.passed)
	}
}

func TestAutoStopsWhenTokenExpires(t *testing.T) {
	var hits atomic.Int32
	ta := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, 401, `{"error":"expired"}`)
	}, nil)

	err := ta.run("auto", "--interval", "1h")
	if got := exitCode(err); got != ExitAuth {
		t.Fatalf("exit code = %d, want %d", got, ExitAuth)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}
