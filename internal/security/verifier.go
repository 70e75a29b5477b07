package security

import (
	"context"
	"errors"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Email  string
	Admin  bool
	// Source names the verifier that accepted the token.
	Source string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Chain tries each verifier in order and returns the first identity.
// An expired token stops the chain so the caller sees the real reason.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	err := ErrInvalidToken
	for _, v := range c {
		id, verr := v.Verify(ctx, token)
		if verr == nil {
			return id, nil
		}
		if errors.Is(verr, ErrExpiredToken) {
			return nil, verr
		}
		err = verr
	}
	return nil, err
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, if any.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
