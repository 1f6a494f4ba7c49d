package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/swipe/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
	ExitAuth       = 4
)

// exitError wraps an error with an exit code.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

// exitCodeFor maps an API failure to a process exit code.
func exitCodeFor(err error) int {
	var f *core.Failure
	if !errors.As(err, &f) {
		if errors.Is(err, core.ErrNoCredential) {
			return ExitAuth
		}
		return ExitAPI
	}
	switch f.Kind {
	case core.KindAuthExpired:
		return ExitAuth
	case core.KindTransient, core.KindCancelled:
		if f.LastStatusCode == 0 {
			return ExitNetwork
		}
	}
	return ExitAPI
}

// handleError reports err on stderr, as text or JSON, and attaches an exit code.
func (a *App) handleError(err error) error {
	if err == nil {
		return nil
	}
	code := exitCodeFor(err)

	if a.jsonOutput {
		a.writeErrorJSON(err)
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if code == ExitAuth {
			fmt.Fprintln(a.stderr, "  Refresh the token with 'swipe keys set' or TINDER_AUTH_TOKEN.")
		}
	}
	return &exitError{code: code, err: err, reported: true}
}

func (a *App) writeErrorJSON(err error) {
	body := map[string]any{
		"type":    "error",
		"message": err.Error(),
	}
	var f *core.Failure
	if errors.As(err, &f) {
		body["type"] = f.Kind.String()
		body["message"] = f.Message
		if f.LastStatusCode != 0 {
			body["status"] = f.LastStatusCode
		}
		if f.RequestID != "" {
			body["request_id"] = f.RequestID
		}
		if f.Ambiguous {
			body["ambiguous"] = true
		}
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": body})
}

// printJSON writes v to stdout as indented JSON.
func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(format string, args ...any) error {
	return exitWithCode(ExitValidation, fmt.Errorf(format, args...))
}
