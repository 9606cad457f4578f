package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mzaverin/dropspace/internal/common"
)

const defaultSessionTTL = 24 * time.Hour

// RedisProvider validates session tokens locally and registers live sessions
// in Redis, so identities only exist while the backing service is reachable.
type RedisProvider struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewRedisProvider(client *redis.Client, secret []byte) *RedisProvider {
	return &RedisProvider{client: client, secret: secret, ttl: defaultSessionTTL}
}

func (p *RedisProvider) RedeemToken(ctx context.Context, token string) (string, error) {
	userID, err := parseSessionToken(token, p.secret)
	if err != nil {
		return "", err
	}
	if err := p.register(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (p *RedisProvider) SignInAnonymously(ctx context.Context) (string, error) {
	id := "anon-" + uuid.NewString()
	if err := p.register(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (p *RedisProvider) register(ctx context.Context, identity string) error {
	key := "dropspace:session:" + identity
	signedInAt := time.Now().UTC().Format(time.RFC3339)
	if err := p.client.Set(ctx, key, signedInAt, p.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
	}
	return nil
}
