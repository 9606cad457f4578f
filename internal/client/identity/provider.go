// Package identity establishes the session identity: a pre-provisioned token
// is redeemed when available, with anonymous sign-in as the fallback.
package identity

import "context"

// Provider is the identity service collaborator.
type Provider interface {
	// RedeemToken exchanges a pre-provisioned session token for an identity.
	// A malformed or rejected token fails with common.ErrInvalidToken.
	RedeemToken(ctx context.Context, token string) (string, error)

	// SignInAnonymously issues a fresh anonymous identity. Fails with
	// common.ErrServiceUnavailable when the service cannot be reached.
	SignInAnonymously(ctx context.Context) (string, error)
}
