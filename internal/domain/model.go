// Package domain holds the typed model shared by the stores, the access
// control model and the live feeds.
package domain

import (
	"strings"
	"time"
)

// MaxRows caps a single rows query. Rows beyond it are not delivered.
const MaxRows = 800

// Account is the profile of an authenticated user.
type Account struct {
	UID         string    `json:"uid"`
	Handle      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HandleIndex maps a lowercased handle back to its account.
type HandleIndex struct {
	HandleLower string    `json:"-"`
	UID         string    `json:"uid"`
	Handle      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credential is what the password authenticator stores per credential id.
type Credential struct {
	CredentialID string
	UID          string
	PasswordHash string
	TokenVersion uint64
	CreatedAt    time.Time
}

type ColumnType string

const (
	ColumnDate     ColumnType = "date"
	ColumnText     ColumnType = "text"
	ColumnRichText ColumnType = "richtext"
)

type Column struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Required bool       `json:"required"`
}

// DefaultColumns returns the columns every new topic starts with.
func DefaultColumns() []Column {
	return []Column{
		{ID: "date", Name: "Date", Type: ColumnDate, Required: true},
		{ID: "title", Name: "Title", Type: ColumnText, Required: true},
		{ID: "notes", Name: "Notes", Type: ColumnRichText, Required: false},
	}
}

type Role string

const (
	RoleEdit Role = "edit"
	RoleRead Role = "read"
)

func (r Role) Valid() bool {
	return r == RoleEdit || r == RoleRead
}

type ShareGrant struct {
	Handle   string    `json:"user_id"`
	UID      string    `json:"uid"`
	Role     Role      `json:"role"`
	SharedAt time.Time `json:"shared_at"`
}

// Topic is a named collection of rows owned by one account.
type Topic struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	OwnerUID    string       `json:"owner_uid"`
	Columns     []Column     `json:"columns"`
	SharedWith  []ShareGrant `json:"shared_with"`
	AllowedUIDs []string     `json:"allowed_uids"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Grant returns the share grant matching handle case-insensitively.
func (t *Topic) Grant(handle string) (ShareGrant, bool) {
	key := strings.ToLower(strings.TrimSpace(handle))
	for _, g := range t.SharedWith {
		if strings.ToLower(g.Handle) == key {
			return g, true
		}
	}
	return ShareGrant{}, false
}

// Row belongs to exactly one topic.
type Row struct {
	ID        string            `json:"id"`
	TopicID   string            `json:"topic_id"`
	Values    map[string]string `json:"values"`
	SortDate  string            `json:"sort_date"`
	CreatedAt time.Time         `json:"created_at"`
	CreatedBy string            `json:"created_by"`
	UpdatedAt time.Time         `json:"updated_at"`
	UpdatedBy string            `json:"updated_by"`
}

func (r *Row) Value(column string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[column]
}
