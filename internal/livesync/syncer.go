package livesync

import (
	"context"
	"errors"

	"topicslog/internal/acl"
	"topicslog/internal/docstore"
	"topicslog/internal/domain"
	appErrors "topicslog/internal/errors"

	"go.uber.org/zap"
)

// Source is the part of the store the feeds query.
type Source interface {
	GetTopic(ctx context.Context, id string) (*domain.Topic, error)
	TopicsForUID(ctx context.Context, uid string) ([]domain.Topic, error)
	Rows(ctx context.Context, topicID string, order domain.RowOrder, limit int) ([]domain.Row, error)
}

// Syncer holds at most one topics feed and one rows feed. Opening a feed
// closes the previous one of the same scope first. A Syncer belongs to a
// single goroutine.
type Syncer struct {
	source Source
	broker docstore.Broker
	limit  int
	logger *zap.SugaredLogger

	topics    *Subscription[domain.Topic]
	rows      *Subscription[domain.Row]
	rowsTopic string
}

func NewSyncer(source Source, broker docstore.Broker, limit int, logger *zap.SugaredLogger) *Syncer {
	if limit <= 0 {
		limit = domain.MaxRows
	}
	return &Syncer{source: source, broker: broker, limit: limit, logger: logger}
}

// SubscribeTopics opens the feed of topics uid can read, most recently
// updated first.
func (s *Syncer) SubscribeTopics(ctx context.Context, uid string) error {
	s.stopTopics()

	sub, err := Subscribe(ctx, s.broker, docstore.TopicsChannel, func(ctx context.Context) ([]domain.Topic, error) {
		return s.source.TopicsForUID(ctx, uid)
	}, s.logger)
	if err != nil {
		return err
	}
	s.topics = sub
	return nil
}

// SubscribeRows opens the rows feed of topicID. Access is re-checked on every
// refresh so a revoked share shows up as a degraded update.
func (s *Syncer) SubscribeRows(ctx context.Context, uid, topicID string, order domain.RowOrder) error {
	s.StopRows()

	sub, err := Subscribe(ctx, s.broker, docstore.RowsChannel(topicID), func(ctx context.Context) ([]domain.Row, error) {
		topic, err := s.source.GetTopic(ctx, topicID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, appErrors.NotFound("Topic not found", err)
			}
			return nil, err
		}
		if !acl.CanRead(topic, uid) {
			return nil, appErrors.Forbidden("You no longer have access to this topic.", nil)
		}
		return s.source.Rows(ctx, topicID, order, s.limit)
	}, s.logger)
	if err != nil {
		return err
	}
	s.rows = sub
	s.rowsTopic = topicID
	return nil
}

// Topics returns the current topics feed, or nil when none is open.
func (s *Syncer) Topics() <-chan Update[domain.Topic] {
	if s.topics == nil {
		return nil
	}
	return s.topics.C()
}

// Rows returns the current rows feed, or nil when none is open.
func (s *Syncer) Rows() <-chan Update[domain.Row] {
	if s.rows == nil {
		return nil
	}
	return s.rows.C()
}

// RowsTopic is the topic of the open rows feed.
func (s *Syncer) RowsTopic() string {
	return s.rowsTopic
}

func (s *Syncer) StopRows() {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
		s.rowsTopic = ""
	}
}

func (s *Syncer) stopTopics() {
	if s.topics != nil {
		s.topics.Close()
		s.topics = nil
	}
}

func (s *Syncer) Close() {
	s.StopRows()
	s.stopTopics()
}
