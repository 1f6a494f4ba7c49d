package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/petal-labs/swipe/core"
)

// DefaultEnvVar holds the auth token.
const DefaultEnvVar = "TINDER_AUTH_TOKEN"

// Env reads the token from an environment variable, falling back to dotenv
// files. The process environment is never modified.
type Env struct {
	// Var is the variable name (default: TINDER_AUTH_TOKEN).
	Var string
	// Files are dotenv files checked in order when Var is unset. Missing
	// files are skipped.
	Files []string

	lookup func(string) (string, bool)
}

// FromEnv returns an Env provider for DefaultEnvVar that also checks files.
func FromEnv(files ...string) *Env {
	return &Env{Var: DefaultEnvVar, Files: files}
}

// Token implements core.CredentialProvider.
func (e *Env) Token(context.Context) (core.Secret, error) {
	name := e.Var
	if name == "" {
		name = DefaultEnvVar
	}
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
		return core.NewSecret(strings.TrimSpace(v)), nil
	}

	for _, file := range e.Files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return core.Secret{}, fmt.Errorf("credentials: read %s: %w", file, err)
		}
		if v := strings.TrimSpace(values[name]); v != "" {
			return core.NewSecret(v), nil
		}
	}
	return core.Secret{}, fmt.Errorf("%w: %s is not set", core.ErrNoCredential, name)
}
