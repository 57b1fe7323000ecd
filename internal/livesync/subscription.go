// Package livesync keeps live projections of the topics list and of the open
// topic's rows. Every update carries the full current result set.
package livesync

import (
	"context"
	"sync"
	"time"

	"topicslog/internal/docstore"
	appErrors "topicslog/internal/errors"

	"go.uber.org/zap"
)

// Update replaces the consumer's projection. A non-nil Err means the feed
// cannot currently sync; Items is then empty and the consumer should keep
// its last good data.
type Update[T any] struct {
	Items []T
	Err   error
	At    time.Time
}

func (u Update[T]) Degraded() bool {
	return u.Err != nil
}

// Fetch loads the full result set of a feed.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// Subscription re-runs its fetch once at open and again on every notification
// of its channel. Its channel holds at most one pending update; a slow reader
// only ever sees the latest state.
type Subscription[T any] struct {
	updates chan Update[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe opens the notification stream before the first fetch so a change
// landing in between is not lost.
func Subscribe[T any](ctx context.Context, broker docstore.Broker, channel string, fetch Fetch[T], logger *zap.SugaredLogger) (*Subscription[T], error) {
	events, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, appErrors.Unavailable("Live updates are unavailable", err)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Subscription[T]{
		updates: make(chan Update[T], 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, events, channel, fetch, logger)
	return s, nil
}

func (s *Subscription[T]) C() <-chan Update[T] {
	return s.updates
}

// Close stops the feed. Nothing is delivered after Close returns.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		select {
		case <-s.updates:
		default:
		}
	})
}

func (s *Subscription[T]) run(ctx context.Context, events docstore.Events, channel string, fetch Fetch[T], logger *zap.SugaredLogger) {
	defer close(s.done)
	defer events.Close()

	s.refresh(ctx, fetch, channel, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case lost, ok := <-events.C():
			if !ok {
				if ctx.Err() != nil {
					return
				}
				logger.Warnw("change feed ended", "channel", channel)
				s.deliver(ctx, Update[T]{
					Err: appErrors.Unavailable("Live updates stopped. Showing the last loaded data.", nil),
					At:  time.Now().UTC(),
				})
				return
			}
			if lost != nil {
				// the stream reconnects by itself and asks for a refresh when back
				logger.Warnw("change feed interrupted", "channel", channel, "error", lost)
				s.deliver(ctx, Update[T]{
					Err: appErrors.Unavailable("Reconnecting. Showing the last loaded data.", lost),
					At:  time.Now().UTC(),
				})
				continue
			}
			s.refresh(ctx, fetch, channel, logger)
		}
	}
}

func (s *Subscription[T]) refresh(ctx context.Context, fetch Fetch[T], channel string, logger *zap.SugaredLogger) {
	items, err := fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	update := Update[T]{Items: items, At: time.Now().UTC()}
	if err != nil {
		logger.Warnw("feed refresh failed", "channel", channel, "error", err)
		update = Update[T]{Err: degrade(err), At: update.At}
	} else if update.Items == nil {
		update.Items = []T{}
	}
	s.deliver(ctx, update)
}

// deliver replaces any pending update with u.
func (s *Subscription[T]) deliver(ctx context.Context, u Update[T]) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case s.updates <- u:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// degrade keeps access errors as they are and reports anything else as
// Unavailable.
func degrade(err error) error {
	switch appErrors.KindOf(err) {
	case appErrors.KindForbidden, appErrors.KindNotFound, appErrors.KindUnavailable:
		return err
	}
	return appErrors.Unavailable("Cannot sync right now. Showing the last loaded data.", err)
}
