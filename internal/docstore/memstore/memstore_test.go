package memstore

import (
	"context"
	"testing"

	"topicslog/internal/docstore"
	"topicslog/internal/docstore/storetest"
	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	topic := &domain.Topic{ID: "t1", OwnerUID: "owner"}
	domain.NewSharing("owner", nil).Apply(topic)
	require.NoError(t, s.CreateTopic(ctx, topic))

	got, err := s.GetTopic(ctx, "t1")
	require.NoError(t, err)
	got.AllowedUIDs[0] = "intruder"

	again, err := s.GetTopic(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, again.AllowedUIDs)

	row, err := s.CreateRow(ctx, "t1", "r1", domain.NewRowWrite(map[string]string{"date": "2024-01-01"}, "owner", topic.CreatedAt))
	require.NoError(t, err)
	row.Values["date"] = "1999-01-01"

	stored, err := s.GetRow(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", stored.Values["date"])
}
