package livesync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	appErrors "topicslog/internal/errors"
	tlredis "topicslog/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// within waits up to d for an update accepted by match.
func within[T any](t *testing.T, ch <-chan Update[T], d time.Duration, match func(Update[T]) bool) Update[T] {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case u := <-ch:
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatalf("no matching update within %s", d)
			return Update[T]{}
		}
	}
}

func TestSubscription_RedisOutageAndRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	broker := tlredis.NewBroker(client)

	var version atomic.Int32
	fetch := func(context.Context) ([]int32, error) { return []int32{version.Load()}, nil }

	sub, err := Subscribe(context.Background(), broker, "topics", fetch, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, []int32{0}, next(t, sub.C()).Items)

	mr.Close()
	u := within(t, sub.C(), 5*time.Second, func(u Update[int32]) bool { return u.Degraded() })
	assert.Equal(t, appErrors.KindUnavailable, appErrors.KindOf(u.Err))
	assert.ErrorIs(t, u.Err, tlredis.ErrConnectionLost)

	// a change made while Redis was away is picked up after the reconnect
	version.Store(1)
	require.NoError(t, mr.Restart())
	u = within(t, sub.C(), 10*time.Second, func(u Update[int32]) bool { return !u.Degraded() })
	assert.Equal(t, []int32{1}, u.Items)

	// and live notifications flow again
	version.Store(2)
	require.NoError(t, broker.Publish(context.Background(), "topics"))
	u = within(t, sub.C(), 5*time.Second, func(u Update[int32]) bool { return !u.Degraded() && u.Items[0] == 2 })
	assert.Equal(t, []int32{2}, u.Items)
}
