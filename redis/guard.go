package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// release after the TTL expired cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard marks an action as in flight with SET NX so a repeated trigger is
// rejected until the first one completes. The TTL bounds a lock left behind
// by a crashed request.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	return &Guard{client: client, ttl: ttl}
}

func (g *Guard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	key = "inflight:" + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, g.client, []string{key}, token)
	}
	return release, true, nil
}
