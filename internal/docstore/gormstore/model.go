package gormstore

import (
	"time"

	"topicslog/internal/domain"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type credentialModel struct {
	CredentialID string    `gorm:"column:credential_id;primaryKey;size:255"`
	UID          string    `gorm:"column:uid;size:64;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	TokenVersion uint64    `gorm:"column:token_version;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime:false"`
}

func (credentialModel) TableName() string { return "credentials" }

type accountModel struct {
	UID         string    `gorm:"column:uid;primaryKey;size:64"`
	Handle      string    `gorm:"column:handle;size:190;not null;default:''"`
	DisplayName string    `gorm:"column:display_name;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (accountModel) TableName() string { return "accounts" }

type handleIndexModel struct {
	HandleLower string    `gorm:"column:handle_lower;primaryKey;size:190"`
	UID         string    `gorm:"column:uid;size:64;not null"`
	Handle      string    `gorm:"column:handle;size:190;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime:false"`
}

func (handleIndexModel) TableName() string { return "user_index" }

type topicModel struct {
	ID          string                                 `gorm:"column:id;primaryKey;size:64"`
	Name        string                                 `gorm:"column:name;not null"`
	OwnerUID    string                                 `gorm:"column:owner_uid;size:64;not null;index"`
	Columns     datatypes.JSONSlice[domain.Column]     `gorm:"column:columns;type:jsonb;not null"`
	SharedWith  datatypes.JSONSlice[domain.ShareGrant] `gorm:"column:shared_with;type:jsonb;not null"`
	AllowedUIDs pq.StringArray                         `gorm:"column:allowed_uids;type:text[];not null;index:idx_topics_allowed_uids,type:gin"`
	CreatedAt   time.Time                              `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   time.Time                              `gorm:"column:updated_at;autoUpdateTime:false;index"`
}

func (topicModel) TableName() string { return "topics" }

type rowModel struct {
	TopicID   string                                `gorm:"column:topic_id;primaryKey;size:64;index:idx_rows_topic_sort_date,priority:1"`
	ID        string                                `gorm:"column:id;primaryKey;size:64"`
	Values    datatypes.JSONType[map[string]string] `gorm:"column:row_values;type:jsonb;not null"`
	SortDate  string                                `gorm:"column:sort_date;size:32;not null;default:'';index:idx_rows_topic_sort_date,priority:2"`
	CreatedAt time.Time                             `gorm:"column:created_at;autoCreateTime:false"`
	CreatedBy string                                `gorm:"column:created_by;size:64"`
	UpdatedAt time.Time                             `gorm:"column:updated_at;autoUpdateTime:false"`
	UpdatedBy string                                `gorm:"column:updated_by;size:64"`
}

func (rowModel) TableName() string { return "topic_rows" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&credentialModel{},
		&accountModel{},
		&handleIndexModel{},
		&topicModel{},
		&rowModel{},
	}
}

func (m *credentialModel) toDomain() *domain.Credential {
	return &domain.Credential{
		CredentialID: m.CredentialID,
		UID:          m.UID,
		PasswordHash: m.PasswordHash,
		TokenVersion: m.TokenVersion,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		UID:         m.UID,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (m *handleIndexModel) toDomain() *domain.HandleIndex {
	return &domain.HandleIndex{
		HandleLower: m.HandleLower,
		UID:         m.UID,
		Handle:      m.Handle,
		CreatedAt:   m.CreatedAt,
	}
}

func topicFromDomain(t *domain.Topic) *topicModel {
	return &topicModel{
		ID:          t.ID,
		Name:        t.Name,
		OwnerUID:    t.OwnerUID,
		Columns:     datatypes.NewJSONSlice(nonNil(t.Columns)),
		SharedWith:  datatypes.NewJSONSlice(nonNil(t.SharedWith)),
		AllowedUIDs: pq.StringArray(t.AllowedUIDs),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (m *topicModel) toDomain() domain.Topic {
	return domain.Topic{
		ID:          m.ID,
		Name:        m.Name,
		OwnerUID:    m.OwnerUID,
		Columns:     []domain.Column(m.Columns),
		SharedWith:  []domain.ShareGrant(m.SharedWith),
		AllowedUIDs: []string(m.AllowedUIDs),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (m *rowModel) toDomain() domain.Row {
	return domain.Row{
		ID:        m.ID,
		TopicID:   m.TopicID,
		Values:    m.Values.Data(),
		SortDate:  m.SortDate,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
		UpdatedAt: m.UpdatedAt,
		UpdatedBy: m.UpdatedBy,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
