package core

import (
	"context"
	"errors"
)

// ErrNoCredential is returned by credential providers that have no token.
var ErrNoCredential = errors.New("no credential available")

// CredentialProvider supplies the current auth token.
// Implementations MUST be safe for concurrent calls. The dispatcher asks for a
// token on every Execute and never caches it; freshness is the provider's job.
// An empty Secret or a non-nil error means the credential is absent.
type CredentialProvider interface {
	Token(ctx context.Context) (Secret, error)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (Secret, error)

// Token calls f.
func (f CredentialFunc) Token(ctx context.Context) (Secret, error) {
	return f(ctx)
}

// StaticCredentials returns a provider that always yields token.
// An empty token behaves as an absent credential.
func StaticCredentials(token string) CredentialProvider {
	s := NewSecret(token)
	return CredentialFunc(func(context.Context) (Secret, error) {
		if s.IsEmpty() {
			return Secret{}, ErrNoCredential
		}
		return s, nil
	})
}
