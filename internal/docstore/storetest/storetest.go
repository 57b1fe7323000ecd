// Package storetest checks that a docstore.Store behaves the way the services
// expect. Every backend runs the same suite from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) docstore.Store

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("Credentials", func(t *testing.T) { testCredentials(t, newStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("HandleIndex", func(t *testing.T) { testHandleIndex(t, newStore(t)) })
	t.Run("Topics", func(t *testing.T) { testTopics(t, newStore(t)) })
	t.Run("TopicsOrder", func(t *testing.T) { testTopicsOrder(t, newStore(t)) })
	t.Run("Rows", func(t *testing.T) { testRows(t, newStore(t)) })
	t.Run("RowsOrder", func(t *testing.T) { testRowsOrder(t, newStore(t)) })
}

func testCredentials(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	cred := &domain.Credential{CredentialID: "ramesh01@topicslog.app", UID: "uid-1", PasswordHash: "hash", CreatedAt: base}
	require.NoError(t, s.CreateCredential(ctx, cred))
	assert.ErrorIs(t, s.CreateCredential(ctx, cred), docstore.ErrDuplicate)

	got, err := s.GetCredential(ctx, "ramesh01@topicslog.app")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.UID)
	assert.Equal(t, uint64(0), got.TokenVersion)

	require.NoError(t, s.IncrementTokenVersion(ctx, "uid-1"))
	got, err = s.GetCredentialByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.TokenVersion)

	_, err = s.GetCredential(ctx, "nobody@topicslog.app")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.ErrorIs(t, s.IncrementTokenVersion(ctx, "uid-x"), docstore.ErrNotFound)
}

func testAccounts(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveAccount(ctx, &domain.Account{UID: "uid-1", Handle: "Ramesh01", CreatedAt: base, UpdatedAt: base}))

	// a save without a handle merges and keeps the stored one
	later := base.Add(time.Hour)
	require.NoError(t, s.SaveAccount(ctx, &domain.Account{UID: "uid-1", DisplayName: "Ramesh", UpdatedAt: later}))

	got, err := s.GetAccount(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh01", got.Handle)
	assert.Equal(t, "Ramesh", got.DisplayName)
	assert.True(t, got.UpdatedAt.Equal(later))

	_, err = s.GetAccount(ctx, "uid-x")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testHandleIndex(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	index := &domain.HandleIndex{HandleLower: "ramesh01", UID: "uid-1", Handle: "Ramesh01", CreatedAt: base}
	require.NoError(t, s.CreateHandleIndex(ctx, index))

	taken := &domain.HandleIndex{HandleLower: "ramesh01", UID: "uid-2", Handle: "RAMESH01", CreatedAt: base}
	assert.ErrorIs(t, s.CreateHandleIndex(ctx, taken), docstore.ErrDuplicate)

	got, err := s.GetHandleIndex(ctx, "ramesh01")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.UID)

	_, err = s.GetHandleIndex(ctx, "priya")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func newTopic(id, owner string, at time.Time) *domain.Topic {
	topic := &domain.Topic{
		ID:        id,
		Name:      "Topic " + id,
		OwnerUID:  owner,
		Columns:   domain.DefaultColumns(),
		CreatedAt: at,
		UpdatedAt: at,
	}
	domain.NewSharing(owner, nil).Apply(topic)
	return topic
}

func testTopics(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTopic(ctx, newTopic("t1", "owner", base)))
	assert.ErrorIs(t, s.CreateTopic(ctx, newTopic("t1", "owner", base)), docstore.ErrDuplicate)

	got, err := s.GetTopic(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, got.AllowedUIDs)
	assert.Len(t, got.Columns, 3)

	grants := []domain.ShareGrant{{Handle: "Priya", UID: "priya", Role: domain.RoleRead, SharedAt: base}}
	shared := base.Add(time.Minute)
	require.NoError(t, s.UpdateSharing(ctx, "t1", domain.NewSharing("owner", grants), shared))

	got, err = s.GetTopic(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "priya"}, got.AllowedUIDs)
	require.Len(t, got.SharedWith, 1)
	assert.Equal(t, domain.RoleRead, got.SharedWith[0].Role)
	assert.True(t, got.UpdatedAt.Equal(shared))

	topics, err := s.TopicsForUID(ctx, "priya")
	require.NoError(t, err)
	require.Len(t, topics, 1)

	require.NoError(t, s.UpdateSharing(ctx, "t1", domain.NewSharing("owner", nil), shared))
	topics, err = s.TopicsForUID(ctx, "priya")
	require.NoError(t, err)
	assert.Empty(t, topics)

	assert.ErrorIs(t, s.UpdateSharing(ctx, "missing", domain.NewSharing("owner", nil), shared), docstore.ErrNotFound)
	assert.ErrorIs(t, s.TouchTopic(ctx, "missing", shared), docstore.ErrNotFound)
	_, err = s.GetTopic(ctx, "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testTopicsOrder(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTopic(ctx, newTopic("a", "owner", base)))
	require.NoError(t, s.CreateTopic(ctx, newTopic("b", "owner", base)))
	require.NoError(t, s.CreateTopic(ctx, newTopic("c", "owner", base)))
	require.NoError(t, s.TouchTopic(ctx, "a", base.Add(time.Hour)))

	topics, err := s.TopicsForUID(ctx, "owner")
	require.NoError(t, err)
	ids := make([]string, 0, len(topics))
	for _, topic := range topics {
		ids = append(ids, topic.ID)
	}
	// most recently updated first, ties newest id first
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func testRows(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTopic(ctx, newTopic("t1", "owner", base)))

	row, err := s.CreateRow(ctx, "t1", "r1", domain.NewRowWrite(map[string]string{"date": "2024-01-05", "title": "first"}, "owner", base))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", row.SortDate)
	assert.Equal(t, "owner", row.CreatedBy)

	_, err = s.CreateRow(ctx, "t1", "r1", domain.NewRowWrite(map[string]string{"date": "2024-01-05"}, "owner", base))
	assert.ErrorIs(t, err, docstore.ErrDuplicate)

	later := base.Add(time.Minute)
	row, err = s.UpdateRow(ctx, "t1", "r1", domain.NewRowWrite(map[string]string{"date": "2024-02-01", "title": "moved"}, "priya", later))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", row.SortDate)
	assert.Equal(t, "moved", row.Values["title"])
	assert.Equal(t, "owner", row.CreatedBy)
	assert.Equal(t, "priya", row.UpdatedBy)
	assert.True(t, row.UpdatedAt.Equal(later))

	_, err = s.UpdateRow(ctx, "t1", "missing", domain.NewRowWrite(nil, "owner", later))
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, s.DeleteRow(ctx, "t1", "r1"))
	assert.ErrorIs(t, s.DeleteRow(ctx, "t1", "r1"), docstore.ErrNotFound)
	_, err = s.GetRow(ctx, "t1", "r1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testRowsOrder(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTopic(ctx, newTopic("t1", "owner", base)))

	add := func(id, date string, at time.Time) {
		_, err := s.CreateRow(ctx, "t1", id, domain.NewRowWrite(map[string]string{"date": date}, "owner", at))
		require.NoError(t, err)
	}
	add("r1", "2024-01-03", base)
	add("r2", "2024-01-01", base.Add(2*time.Minute))
	add("r3", "2024-01-03", base.Add(time.Minute))
	add("r4", "2024-01-02", base.Add(3*time.Minute))

	ids := func(order domain.RowOrder, limit int) []string {
		rows, err := s.Rows(ctx, "t1", order, limit)
		require.NoError(t, err)
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"r2", "r4", "r1", "r3"}, ids(domain.ParseRowOrder("date_asc"), 0))
	assert.Equal(t, []string{"r3", "r1", "r4", "r2"}, ids(domain.ParseRowOrder("date_desc"), 0))
	assert.Equal(t, []string{"r4", "r2", "r3", "r1"}, ids(domain.DefaultRowOrder, 0))
	assert.Equal(t, []string{"r4", "r2"}, ids(domain.DefaultRowOrder, 2))

	rows, err := s.Rows(ctx, "other", domain.DefaultRowOrder, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
