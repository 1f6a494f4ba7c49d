package core

import (
	"crypto/sha256"
	"encoding/hex"
)

const redacted = "[REDACTED]"

// Secret holds an auth token. Its value never appears in fmt output, JSON,
// YAML or text encodings; Expose is the only way to read it.
//
//	tok := NewSecret("3f2a9c1e-auth-token")
//	fmt.Println(tok)   // [REDACTED]
//	tok.Expose()       // "3f2a9c1e-auth-token"
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String implements fmt.Stringer.
func (s Secret) String() string { return redacted }

// GoString implements fmt.GoStringer for %#v.
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Expose returns the raw token for the auth header.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether the token is empty.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// Fingerprint returns the first 8 hex characters of the token's SHA-256, so
// logs can tell tokens apart without revealing them. Empty for an empty token.
func (s Secret) Fingerprint() string {
	if s.value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.value))
	return hex.EncodeToString(sum[:4])
}
