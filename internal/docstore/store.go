// Package docstore defines the contract the core relies on from the backing
// document store: addressed reads and writes, filtered and ordered queries, and
// change notifications.
package docstore

import (
	"context"
	"errors"
	"time"

	"topicslog/internal/domain"
)

var (
	// ErrNotFound is returned when an addressed document does not exist.
	ErrNotFound = errors.New("docstore: not found")
	// ErrDuplicate is returned when a create collides with an existing key.
	ErrDuplicate = errors.New("docstore: duplicate key")
)

type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *domain.Credential) error
	GetCredential(ctx context.Context, credentialID string) (*domain.Credential, error)
	GetCredentialByUID(ctx context.Context, uid string) (*domain.Credential, error)
	IncrementTokenVersion(ctx context.Context, uid string) error
}

type AccountStore interface {
	// SaveAccount creates the profile or merges handle/display name into it.
	SaveAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, uid string) (*domain.Account, error)
	// CreateHandleIndex fails with ErrDuplicate if the handle is taken.
	CreateHandleIndex(ctx context.Context, index *domain.HandleIndex) error
	GetHandleIndex(ctx context.Context, handleLower string) (*domain.HandleIndex, error)
}

type TopicStore interface {
	CreateTopic(ctx context.Context, topic *domain.Topic) error
	GetTopic(ctx context.Context, id string) (*domain.Topic, error)
	// UpdateSharing writes sharedWith, allowedUids and updatedAt in one update.
	UpdateSharing(ctx context.Context, id string, sharing domain.Sharing, at time.Time) error
	TouchTopic(ctx context.Context, id string, at time.Time) error
	// TopicsForUID returns topics whose allowedUids contain uid, most recently
	// updated first.
	TopicsForUID(ctx context.Context, uid string) ([]domain.Topic, error)
}

type RowStore interface {
	CreateRow(ctx context.Context, topicID string, id string, write domain.RowWrite) (*domain.Row, error)
	// UpdateRow overwrites values and sortDate unconditionally.
	UpdateRow(ctx context.Context, topicID, rowID string, write domain.RowWrite) (*domain.Row, error)
	DeleteRow(ctx context.Context, topicID, rowID string) error
	GetRow(ctx context.Context, topicID, rowID string) (*domain.Row, error)
	Rows(ctx context.Context, topicID string, order domain.RowOrder, limit int) ([]domain.Row, error)
}

// Store is the full backend contract.
type Store interface {
	CredentialStore
	AccountStore
	TopicStore
	RowStore
}
