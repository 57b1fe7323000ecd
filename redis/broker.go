package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"topicslog/internal/docstore"

	"github.com/redis/go-redis/v9"
)

const (
	minRetry = 100 * time.Millisecond
	maxRetry = 2 * time.Second
)

// ErrConnectionLost is sent on a stream whose Redis connection dropped.
var ErrConnectionLost = errors.New("redis: pub/sub connection lost")

// Broker carries change notifications over Redis pub/sub so every server
// instance refreshes its live feeds.
type Broker struct {
	client *redis.Client
}

var _ docstore.Broker = (*Broker)(nil)

func NewBroker(client *redis.Client) *Broker {
	return &Broker{client: client}
}

func (b *Broker) Publish(ctx context.Context, channel string) error {
	return b.client.Publish(ctx, channel, "changed").Err()
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (docstore.Events, error) {
	ps := b.client.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	ev := &events{
		ps:   ps,
		ch:   make(chan error, 1),
		done: make(chan struct{}),
	}
	go ev.pump()
	return ev, nil
}

type events struct {
	ps   *redis.PubSub
	ch   chan error
	done chan struct{}
	once sync.Once
}

func (e *events) C() <-chan error { return e.ch }

func (e *events) Close() error {
	var err error
	e.once.Do(func() {
		close(e.done)
		err = e.ps.Close()
	})
	return err
}

func (e *events) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// pump reads the subscription directly instead of through PubSub.Channel,
// which reconnects silently and drops what was published meanwhile. A read
// error reports the loss. The next read redials and resubscribes, and its
// confirmation asks the consumer to refetch.
func (e *events) pump() {
	defer close(e.ch)

	ctx := context.Background()
	retry := minRetry
	for {
		msg, err := e.ps.Receive(ctx)
		if e.closed() {
			return
		}
		if err != nil {
			docstore.Offer(e.ch, errors.Join(ErrConnectionLost, err))
			select {
			case <-e.done:
				return
			case <-time.After(retry):
			}
			retry = min(retry*2, maxRetry)
			continue
		}
		retry = minRetry

		switch msg.(type) {
		case *redis.Message, *redis.Subscription:
			docstore.Offer(e.ch, nil)
		}
	}
}
