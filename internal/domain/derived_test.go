package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSharing_DerivesAllowedUIDs(t *testing.T) {
	grants := []ShareGrant{
		{Handle: "sita", UID: "u1", Role: RoleEdit},
		{Handle: "gopal", UID: "u2", Role: RoleRead},
		{Handle: "Sita", UID: "u1", Role: RoleRead},
		{Handle: "self", UID: "owner", Role: RoleRead},
		{Handle: "broken"},
	}

	s := NewSharing("owner", grants)

	assert.Equal(t, []string{"owner", "u1", "u2"}, s.AllowedUIDs())
	assert.Len(t, s.Grants(), 5)
}

func TestSharing_DoesNotAlias(t *testing.T) {
	grants := []ShareGrant{{Handle: "sita", UID: "u1"}}
	s := NewSharing("owner", grants)

	grants[0].UID = "changed"
	s.Grants()[0].UID = "changed too"
	s.AllowedUIDs()[0] = "changed three"

	assert.Equal(t, "u1", s.Grants()[0].UID)
	assert.Equal(t, []string{"owner", "u1"}, s.AllowedUIDs())

	var topic Topic
	s.Apply(&topic)
	assert.Equal(t, []string{"owner", "u1"}, topic.AllowedUIDs)
	assert.Equal(t, "u1", topic.SharedWith[0].UID)
}

func TestRowWrite_SortDateFollowsDate(t *testing.T) {
	at := time.Now()
	values := map[string]string{"date": "2024-01-05", "title": "x"}
	w := NewRowWrite(values, "u1", at)

	values["date"] = "1999-01-01"

	assert.Equal(t, "2024-01-05", w.SortDate())
	assert.Equal(t, w.Values()["date"], w.SortDate())
	assert.Equal(t, "u1", w.By())
	assert.Equal(t, at, w.At())

	assert.Equal(t, "", NewRowWrite(nil, "u1", at).SortDate())
}

func TestParseRowOrder(t *testing.T) {
	tests := []struct {
		name string
		want RowOrder
	}{
		{"date_desc", RowOrder{Field: SortDate, Direction: Desc}},
		{"date_asc", RowOrder{Field: SortDate, Direction: Asc}},
		{"updated_desc", DefaultRowOrder},
		{"", DefaultRowOrder},
		{"bogus", DefaultRowOrder},
	}
	for _, tt := range tests {
		got := ParseRowOrder(tt.name)
		assert.Equal(t, tt.want, got)
		if tt.name == "date_desc" || tt.name == "date_asc" || tt.name == "updated_desc" {
			assert.Equal(t, tt.name, got.Name())
		}
	}
}

func TestTopicGrant_CaseInsensitive(t *testing.T) {
	topic := Topic{SharedWith: []ShareGrant{{Handle: "Ramesh01", UID: "u1"}}}

	g, ok := topic.Grant(" RAMESH01 ")
	assert.True(t, ok)
	assert.Equal(t, "u1", g.UID)

	_, ok = topic.Grant("sita")
	assert.False(t, ok)
}
