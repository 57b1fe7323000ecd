// Package gormstore implements docstore.Store on Postgres through gorm.
package gormstore

import (
	"context"
	"errors"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/domain"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

var _ docstore.Store = (*Store)(nil)

// New creates a store over db. db should be opened with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table the store uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return docstore.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return docstore.ErrDuplicate
	}
	return err
}

func (s *Store) CreateCredential(ctx context.Context, cred *domain.Credential) error {
	return translate(s.db.WithContext(ctx).Create(&credentialModel{
		CredentialID: cred.CredentialID,
		UID:          cred.UID,
		PasswordHash: cred.PasswordHash,
		TokenVersion: cred.TokenVersion,
		CreatedAt:    cred.CreatedAt,
	}).Error)
}

func (s *Store) GetCredential(ctx context.Context, credentialID string) (*domain.Credential, error) {
	var m credentialModel
	if err := s.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetCredentialByUID(ctx context.Context, uid string) (*domain.Credential, error) {
	var m credentialModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) IncrementTokenVersion(ctx context.Context, uid string) error {
	res := s.db.WithContext(ctx).Model(&credentialModel{}).
		Where("uid = ?", uid).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	updates := map[string]any{"updated_at": account.UpdatedAt}
	if account.Handle != "" {
		updates["handle"] = account.Handle
	}
	if account.DisplayName != "" {
		updates["display_name"] = account.DisplayName
	}

	return translate(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(&accountModel{
			UID:         account.UID,
			Handle:      account.Handle,
			DisplayName: account.DisplayName,
			CreatedAt:   account.CreatedAt,
			UpdatedAt:   account.UpdatedAt,
		}).Error)
}

func (s *Store) GetAccount(ctx context.Context, uid string) (*domain.Account, error) {
	var m accountModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) CreateHandleIndex(ctx context.Context, index *domain.HandleIndex) error {
	return translate(s.db.WithContext(ctx).Create(&handleIndexModel{
		HandleLower: index.HandleLower,
		UID:         index.UID,
		Handle:      index.Handle,
		CreatedAt:   index.CreatedAt,
	}).Error)
}

func (s *Store) GetHandleIndex(ctx context.Context, handleLower string) (*domain.HandleIndex, error) {
	var m handleIndexModel
	if err := s.db.WithContext(ctx).Where("handle_lower = ?", handleLower).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) CreateTopic(ctx context.Context, topic *domain.Topic) error {
	return translate(s.db.WithContext(ctx).Create(topicFromDomain(topic)).Error)
}

func (s *Store) GetTopic(ctx context.Context, id string) (*domain.Topic, error) {
	var m topicModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	t := m.toDomain()
	return &t, nil
}

func (s *Store) UpdateSharing(ctx context.Context, id string, sharing domain.Sharing, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&topicModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"shared_with":  datatypes.NewJSONSlice(nonNil(sharing.Grants())),
			"allowed_uids": pq.StringArray(sharing.AllowedUIDs()),
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) TouchTopic(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&topicModel{}).
		Where("id = ?", id).
		Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) TopicsForUID(ctx context.Context, uid string) ([]domain.Topic, error) {
	var models []topicModel
	err := s.db.WithContext(ctx).
		Where("? = ANY(allowed_uids)", uid).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	topics := make([]domain.Topic, 0, len(models))
	for i := range models {
		topics = append(topics, models[i].toDomain())
	}
	return topics, nil
}

func (s *Store) CreateRow(ctx context.Context, topicID string, id string, write domain.RowWrite) (*domain.Row, error) {
	m := rowModel{
		TopicID:   topicID,
		ID:        id,
		Values:    datatypes.NewJSONType(write.Values()),
		SortDate:  write.SortDate(),
		CreatedAt: write.At(),
		CreatedBy: write.By(),
		UpdatedAt: write.At(),
		UpdatedBy: write.By(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, translate(err)
	}
	row := m.toDomain()
	return &row, nil
}

func (s *Store) UpdateRow(ctx context.Context, topicID, rowID string, write domain.RowWrite) (*domain.Row, error) {
	res := s.db.WithContext(ctx).Model(&rowModel{}).
		Where("topic_id = ? AND id = ?", topicID, rowID).
		Updates(map[string]any{
			"row_values": datatypes.NewJSONType(write.Values()),
			"sort_date":  write.SortDate(),
			"updated_at": write.At(),
			"updated_by": write.By(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, docstore.ErrNotFound
	}
	return s.GetRow(ctx, topicID, rowID)
}

func (s *Store) DeleteRow(ctx context.Context, topicID, rowID string) error {
	res := s.db.WithContext(ctx).
		Where("topic_id = ? AND id = ?", topicID, rowID).
		Delete(&rowModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) GetRow(ctx context.Context, topicID, rowID string) (*domain.Row, error) {
	var m rowModel
	if err := s.db.WithContext(ctx).Where("topic_id = ? AND id = ?", topicID, rowID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	row := m.toDomain()
	return &row, nil
}

func (s *Store) Rows(ctx context.Context, topicID string, order domain.RowOrder, limit int) ([]domain.Row, error) {
	column := "updated_at"
	if order.Field == domain.SortDate {
		column = "sort_date"
	}
	desc := order.Direction == domain.Desc

	query := s.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []rowModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(models))
	for i := range models {
		rows = append(rows, models[i].toDomain())
	}
	return rows, nil
}
