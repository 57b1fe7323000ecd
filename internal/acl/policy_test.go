package acl

import (
	"testing"

	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
)

func sharedTopic() *domain.Topic {
	t := &domain.Topic{ID: "t1", OwnerUID: "owner"}
	domain.NewSharing("owner", []domain.ShareGrant{
		{Handle: "editor", UID: "u-edit", Role: domain.RoleEdit},
		{Handle: "reader", UID: "u-read", Role: domain.RoleRead},
		{Handle: "legacy", UID: "u-legacy"},
	}).Apply(t)
	return t
}

func TestPredicates(t *testing.T) {
	topic := sharedTopic()

	tests := []struct {
		uid      string
		read     bool
		write    bool
		owner    bool
		roleName string
	}{
		{"owner", true, true, true, "owner"},
		{"u-edit", true, true, false, "edit"},
		{"u-read", true, false, false, "read"},
		{"u-legacy", true, true, false, "edit"},
		{"stranger", false, false, false, ""},
		{"", false, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			assert.Equal(t, tt.read, CanRead(topic, tt.uid))
			assert.Equal(t, tt.write, CanWrite(topic, tt.uid))
			assert.Equal(t, tt.owner, IsOwner(topic, tt.uid))
			assert.Equal(t, tt.roleName, RoleOf(topic, tt.uid))
		})
	}
}

func TestCanRead_OnlyAllowedUIDsCount(t *testing.T) {
	// a grant that never made it into allowedUids gives no access
	topic := &domain.Topic{
		OwnerUID:    "owner",
		SharedWith:  []domain.ShareGrant{{Handle: "ghost", UID: "u-ghost", Role: domain.RoleEdit}},
		AllowedUIDs: []string{"owner"},
	}
	assert.False(t, CanRead(topic, "u-ghost"))
	assert.False(t, CanWrite(topic, "u-ghost"))
	assert.False(t, CanRead(nil, "owner"))
}
