package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/docstore/memstore"
	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockBroker) Subscribe(ctx context.Context, channel string) (docstore.Events, error) {
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func seedTopic(t *testing.T, s docstore.Store) {
	t.Helper()
	topic := &domain.Topic{ID: "t1", OwnerUID: "owner"}
	domain.NewSharing("owner", nil).Apply(topic)
	require.NoError(t, s.CreateTopic(context.Background(), topic))
}

func TestNotifying_PublishesPerMutation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := memstore.New()
	seedTopic(t, base)

	broker := new(MockBroker)
	broker.On("Publish", mock.Anything, mock.Anything).Return(nil)
	n := docstore.NewNotifying(base, broker, zap.NewNop().Sugar())

	write := domain.NewRowWrite(map[string]string{"date": "2024-01-01"}, "owner", now)
	_, err := n.CreateRow(ctx, "t1", "r1", write)
	require.NoError(t, err)
	broker.AssertCalled(t, "Publish", mock.Anything, "topic:t1:rows")
	broker.AssertNotCalled(t, "Publish", mock.Anything, docstore.TopicsChannel)

	require.NoError(t, n.TouchTopic(ctx, "t1", now))
	broker.AssertCalled(t, "Publish", mock.Anything, docstore.TopicsChannel)

	require.NoError(t, n.UpdateSharing(ctx, "t1", domain.NewSharing("owner", nil), now))
	require.NoError(t, n.DeleteRow(ctx, "t1", "r1"))
	broker.AssertNumberOfCalls(t, "Publish", 5)
}

func TestNotifying_FailedWriteDoesNotPublish(t *testing.T) {
	broker := new(MockBroker)
	n := docstore.NewNotifying(memstore.New(), broker, zap.NewNop().Sugar())

	err := n.DeleteRow(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotifying_PublishFailureKeepsWrite(t *testing.T) {
	base := memstore.New()
	broker := new(MockBroker)
	broker.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	n := docstore.NewNotifying(base, broker, zap.NewNop().Sugar())

	seedTopic(t, n)
	_, err := base.GetTopic(context.Background(), "t1")
	assert.NoError(t, err)
}

func TestLocalBroker_Conflates(t *testing.T) {
	ctx := context.Background()
	b := docstore.NewLocalBroker()

	ev, err := b.Subscribe(ctx, "topics")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "topics"))
	require.NoError(t, b.Publish(ctx, "topics"))
	require.NoError(t, b.Publish(ctx, "topic:other:rows"))

	<-ev.C()
	select {
	case <-ev.C():
		t.Fatal("two publishes should conflate into one pending event")
	default:
	}

	require.NoError(t, ev.Close())
	_, ok := <-ev.C()
	assert.False(t, ok)
	require.NoError(t, ev.Close())
	// publishing after close must not panic
	require.NoError(t, b.Publish(ctx, "topics"))
}
