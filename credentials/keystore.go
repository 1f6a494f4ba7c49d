package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petal-labs/swipe/core"
)

// Getter is the read side of a key store.
type Getter interface {
	Get(name string) (string, error)
}

// Keystore reads the token from a named entry in a key store, such as the
// encrypted CLI keystore.
type Keystore struct {
	Store Getter
	Name  string
}

// Token implements core.CredentialProvider.
func (k Keystore) Token(context.Context) (core.Secret, error) {
	if k.Store == nil {
		return core.Secret{}, errors.New("credentials: keystore not configured")
	}
	v, err := k.Store.Get(k.Name)
	if err != nil {
		return core.Secret{}, fmt.Errorf("%w: keystore entry %q: %v", core.ErrNoCredential, k.Name, err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Secret{}, fmt.Errorf("%w: keystore entry %q is empty", core.ErrNoCredential, k.Name)
	}
	return core.NewSecret(v), nil
}
