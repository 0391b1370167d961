package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrClaimLost is returned by Release when the claim expired before the
// create finished, so the key now belongs to someone else or to nobody.
var ErrClaimLost = errors.New("name claim expired before release")

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNameGuard reserves product names across service instances so two
// concurrent creates with the same name cannot both pass the store check.
type RedisNameGuard struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

// NewRedisNameGuard creates a new Redis-backed name guard. Claims expire
// after ttl so a crashed instance cannot hold a name forever.
func NewRedisNameGuard(client *redis.Client, ttl time.Duration) *RedisNameGuard {
	return &RedisNameGuard{
		client:   client,
		ttl:      ttl,
		newToken: uuid.NewString,
	}
}

func (g *RedisNameGuard) nameKey(name string) string {
	return fmt.Sprintf("catalog:product-name:%s", name)
}

// Claim reserves name under a fresh token. ok is false if another create
// holds it.
func (g *RedisNameGuard) Claim(ctx context.Context, name string) (token string, ok bool, err error) {
	token = g.newToken()
	ok, err = g.client.SetNX(ctx, g.nameKey(name), token, g.ttl).Result()
	if err != nil || !ok {
		return "", ok, err
	}
	return token, true, nil
}

// Release drops the reservation for name if it is still held by token
func (g *RedisNameGuard) Release(ctx context.Context, name, token string) error {
	deleted, err := releaseScript.Run(ctx, g.client, []string{g.nameKey(name)}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if deleted == 0 {
		return ErrClaimLost
	}
	return nil
}
