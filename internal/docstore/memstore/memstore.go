// Package memstore is an in-memory docstore.Store used by tests and by the
// server's --memory mode.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	credentials map[string]domain.Credential
	accounts    map[string]domain.Account
	handles     map[string]domain.HandleIndex
	topics      map[string]domain.Topic
	rows        map[string]map[string]domain.Row
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		credentials: make(map[string]domain.Credential),
		accounts:    make(map[string]domain.Account),
		handles:     make(map[string]domain.HandleIndex),
		topics:      make(map[string]domain.Topic),
		rows:        make(map[string]map[string]domain.Row),
	}
}

func (s *Store) CreateCredential(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.CredentialID]; ok {
		return docstore.ErrDuplicate
	}
	s.credentials[cred.CredentialID] = *cred
	return nil
}

func (s *Store) GetCredential(_ context.Context, credentialID string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[credentialID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &cred, nil
}

func (s *Store) GetCredentialByUID(_ context.Context, uid string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cred := range s.credentials {
		if cred.UID == uid {
			c := cred
			return &c, nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (s *Store) IncrementTokenVersion(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cred := range s.credentials {
		if cred.UID == uid {
			cred.TokenVersion++
			s.credentials[id] = cred
			return nil
		}
	}
	return docstore.ErrNotFound
}

func (s *Store) SaveAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.accounts[account.UID]
	if !ok {
		s.accounts[account.UID] = *account
		return nil
	}
	if account.Handle != "" {
		existing.Handle = account.Handle
	}
	if account.DisplayName != "" {
		existing.DisplayName = account.DisplayName
	}
	existing.UpdatedAt = account.UpdatedAt
	s.accounts[account.UID] = existing
	return nil
}

func (s *Store) GetAccount(_ context.Context, uid string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[uid]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &account, nil
}

func (s *Store) CreateHandleIndex(_ context.Context, index *domain.HandleIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[index.HandleLower]; ok {
		return docstore.ErrDuplicate
	}
	s.handles[index.HandleLower] = *index
	return nil
}

func (s *Store) GetHandleIndex(_ context.Context, handleLower string) (*domain.HandleIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.handles[handleLower]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &index, nil
}

func (s *Store) CreateTopic(_ context.Context, topic *domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic.ID]; ok {
		return docstore.ErrDuplicate
	}
	s.topics[topic.ID] = cloneTopic(*topic)
	return nil
}

func (s *Store) GetTopic(_ context.Context, id string) (*domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.topics[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	t := cloneTopic(topic)
	return &t, nil
}

func (s *Store) UpdateSharing(_ context.Context, id string, sharing domain.Sharing, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	topic, ok := s.topics[id]
	if !ok {
		return docstore.ErrNotFound
	}
	sharing.Apply(&topic)
	topic.UpdatedAt = at
	s.topics[id] = topic
	return nil
}

func (s *Store) TouchTopic(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	topic, ok := s.topics[id]
	if !ok {
		return docstore.ErrNotFound
	}
	topic.UpdatedAt = at
	s.topics[id] = topic
	return nil
}

func (s *Store) TopicsForUID(_ context.Context, uid string) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Topic, 0)
	for _, topic := range s.topics {
		for _, allowed := range topic.AllowedUIDs {
			if allowed == uid {
				out = append(out, cloneTopic(topic))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) CreateRow(_ context.Context, topicID string, id string, write domain.RowWrite) (*domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[topicID] == nil {
		s.rows[topicID] = make(map[string]domain.Row)
	}
	if _, ok := s.rows[topicID][id]; ok {
		return nil, docstore.ErrDuplicate
	}
	row := domain.Row{
		ID:        id,
		TopicID:   topicID,
		Values:    write.Values(),
		SortDate:  write.SortDate(),
		CreatedAt: write.At(),
		CreatedBy: write.By(),
		UpdatedAt: write.At(),
		UpdatedBy: write.By(),
	}
	s.rows[topicID][id] = row
	out := cloneRow(row)
	return &out, nil
}

func (s *Store) UpdateRow(_ context.Context, topicID, rowID string, write domain.RowWrite) (*domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[topicID][rowID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	row.Values = write.Values()
	row.SortDate = write.SortDate()
	row.UpdatedAt = write.At()
	row.UpdatedBy = write.By()
	s.rows[topicID][rowID] = row
	out := cloneRow(row)
	return &out, nil
}

func (s *Store) DeleteRow(_ context.Context, topicID, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[topicID][rowID]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.rows[topicID], rowID)
	return nil
}

func (s *Store) GetRow(_ context.Context, topicID, rowID string) (*domain.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[topicID][rowID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	out := cloneRow(row)
	return &out, nil
}

func (s *Store) Rows(_ context.Context, topicID string, order domain.RowOrder, limit int) ([]domain.Row, error) {
	s.mu.RLock()
	out := make([]domain.Row, 0, len(s.rows[topicID]))
	for _, row := range s.rows[topicID] {
		out = append(out, cloneRow(row))
	}
	s.mu.RUnlock()

	less := func(a, b domain.Row) int {
		var c int
		if order.Field == domain.SortDate {
			c = compareString(a.SortDate, b.SortDate)
		} else {
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		}
		if c == 0 {
			// ties break on id, in the same direction as the sort field
			c = compareString(a.ID, b.ID)
		}
		if order.Direction == domain.Desc {
			c = -c
		}
		return c
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) < 0 })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneTopic(t domain.Topic) domain.Topic {
	t.Columns = append([]domain.Column(nil), t.Columns...)
	t.SharedWith = append([]domain.ShareGrant(nil), t.SharedWith...)
	t.AllowedUIDs = append([]string(nil), t.AllowedUIDs...)
	return t
}

func cloneRow(r domain.Row) domain.Row {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}
