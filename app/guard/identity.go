package guard

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned by an IdentityProvider that rejects the
// submitted credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionRequest is the body of POST /auth/session.
type SessionRequest struct {
	Email string `json:"email"`
	// Credential is whatever the provider verifies: a password, a one-time
	// code or a provider issued token.
	Credential string `json:"credential"`
}

// IdentityProvider exchanges credentials for the provider's bearer token.
// The token is opaque here apart from the expiry and identity claims read by
// sessiontoken.
type IdentityProvider interface {
	Exchange(ctx context.Context, req SessionRequest) (token string, err error)
}

// IdentityProviderFunc adapts a function to IdentityProvider.
type IdentityProviderFunc func(ctx context.Context, req SessionRequest) (string, error)

// Exchange implements IdentityProvider.
func (f IdentityProviderFunc) Exchange(ctx context.Context, req SessionRequest) (string, error) {
	return f(ctx, req)
}
