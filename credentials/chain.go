package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/petal-labs/swipe/core"
)

// Chain tries providers in order and returns the first token found.
type Chain []core.CredentialProvider

// Token implements core.CredentialProvider.
func (c Chain) Token(ctx context.Context) (core.Secret, error) {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		tok, err := p.Token(ctx)
		if err == nil && !tok.IsEmpty() {
			return tok, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return core.Secret{}, core.ErrNoCredential
	}
	return core.Secret{}, fmt.Errorf("%w: %w", core.ErrNoCredential, errors.Join(errs...))
}
