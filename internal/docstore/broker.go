package docstore

import (
	"context"
	"sync"
)

// TopicsChannel carries a notification for any topic mutation.
const TopicsChannel = "topics"

// RowsChannel is the channel for row mutations of one topic.
func RowsChannel(topicID string) string {
	return "topic:" + topicID + ":rows"
}

// Events is a live notification stream. C delivers nil for a change and a
// non-nil error when the stream lost its connection. A lost stream keeps
// retrying, and the nil that follows a reconnect means everything may have
// changed. At most one event is pending and a newer one replaces it. The
// channel is closed once the stream ends for good, through Close or because
// it cannot recover.
type Events interface {
	C() <-chan error
	Close() error
}

// Offer replaces any pending event on ch with ev. ch must have a buffer of
// one and a single sender.
func Offer(ch chan error, ev error) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

type Broker interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (Events, error)
}

// LocalBroker is an in-process Broker.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[string]map[*localEvents]struct{}
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localEvents]struct{})}
}

type localEvents struct {
	broker  *LocalBroker
	channel string
	ch      chan error
	once    sync.Once
}

func (e *localEvents) C() <-chan error { return e.ch }

func (e *localEvents) Close() error {
	e.once.Do(func() {
		e.broker.mu.Lock()
		delete(e.broker.subs[e.channel], e)
		e.broker.mu.Unlock()
		close(e.ch)
	})
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, channel string) (Events, error) {
	ev := &localEvents{broker: b, channel: channel, ch: make(chan error, 1)}
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*localEvents]struct{})
	}
	b.subs[channel][ev] = struct{}{}
	b.mu.Unlock()
	return ev, nil
}

func (b *LocalBroker) Publish(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ev := range b.subs[channel] {
		// a pending notification already covers this one
		select {
		case ev.ch <- nil:
		default:
		}
	}
	return nil
}
