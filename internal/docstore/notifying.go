package docstore

import (
	"context"
	"time"

	"topicslog/internal/domain"

	"go.uber.org/zap"
)

// Notifying wraps a Store and publishes a change notification after every
// successful topic or row mutation. A failed publish never fails the write.
type Notifying struct {
	Store
	broker Broker
	logger *zap.SugaredLogger
}

func NewNotifying(store Store, broker Broker, logger *zap.SugaredLogger) *Notifying {
	return &Notifying{Store: store, broker: broker, logger: logger}
}

func (n *Notifying) publish(ctx context.Context, channels ...string) {
	for _, ch := range channels {
		if err := n.broker.Publish(ctx, ch); err != nil {
			n.logger.Warnw("change notification failed", "channel", ch, "error", err)
		}
	}
}

func (n *Notifying) CreateTopic(ctx context.Context, topic *domain.Topic) error {
	if err := n.Store.CreateTopic(ctx, topic); err != nil {
		return err
	}
	n.publish(ctx, TopicsChannel)
	return nil
}

func (n *Notifying) UpdateSharing(ctx context.Context, id string, sharing domain.Sharing, at time.Time) error {
	if err := n.Store.UpdateSharing(ctx, id, sharing, at); err != nil {
		return err
	}
	// rows feeds re-check access on refresh, so a revoke reaches them too
	n.publish(ctx, TopicsChannel, RowsChannel(id))
	return nil
}

func (n *Notifying) TouchTopic(ctx context.Context, id string, at time.Time) error {
	if err := n.Store.TouchTopic(ctx, id, at); err != nil {
		return err
	}
	n.publish(ctx, TopicsChannel)
	return nil
}

func (n *Notifying) CreateRow(ctx context.Context, topicID string, id string, write domain.RowWrite) (*domain.Row, error) {
	row, err := n.Store.CreateRow(ctx, topicID, id, write)
	if err != nil {
		return nil, err
	}
	n.publish(ctx, RowsChannel(topicID))
	return row, nil
}

func (n *Notifying) UpdateRow(ctx context.Context, topicID, rowID string, write domain.RowWrite) (*domain.Row, error) {
	row, err := n.Store.UpdateRow(ctx, topicID, rowID, write)
	if err != nil {
		return nil, err
	}
	n.publish(ctx, RowsChannel(topicID))
	return row, nil
}

func (n *Notifying) DeleteRow(ctx context.Context, topicID, rowID string) error {
	if err := n.Store.DeleteRow(ctx, topicID, rowID); err != nil {
		return err
	}
	n.publish(ctx, RowsChannel(topicID))
	return nil
}
