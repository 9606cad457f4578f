package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/mzaverin/dropspace/internal/client/session"
	"github.com/mzaverin/dropspace/internal/common"
	"github.com/mzaverin/dropspace/internal/logging"
)

// Bootstrapper resolves the session identity at most once per session and
// publishes it through the session's readiness gate.
type Bootstrapper struct {
	provider Provider
	token    string
	session  *session.Session
	logger   logging.Logger

	once     sync.Once
	identity string
	err      error
}

func NewBootstrapper(provider Provider, token string, sess *session.Session, logger logging.Logger) *Bootstrapper {
	return &Bootstrapper{provider: provider, token: token, session: sess, logger: logger}
}

// Bootstrap establishes the identity: the pre-provisioned token is redeemed
// when present, and any redemption failure falls back to anonymous sign-in.
// If anonymous sign-in also fails the session is left without an identity and
// common.ErrIdentityUnavailable is returned. Subsequent calls return the
// first result.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (string, error) {
	b.once.Do(func() {
		b.identity, b.err = b.resolve(ctx)
		if b.err == nil {
			b.err = b.session.SetIdentity(b.identity)
		}
	})
	return b.identity, b.err
}

func (b *Bootstrapper) resolve(ctx context.Context) (string, error) {
	if b.token != "" {
		id, err := b.provider.RedeemToken(ctx, b.token)
		if err == nil {
			b.logger.Info(ctx, "session token redeemed", "identity", id)
			return id, nil
		}
		b.logger.Warn(ctx, "token redemption failed, falling back to anonymous sign-in", "error", err)
	}

	id, err := b.provider.SignInAnonymously(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrIdentityUnavailable, err)
	}
	b.logger.Info(ctx, "signed in anonymously", "identity", id)
	return id, nil
}
