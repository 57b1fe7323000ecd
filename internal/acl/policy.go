// Package acl owns the per-topic access list: who may read a topic, who may
// write its rows and how sharing changes keep allowedUids consistent.
package acl

import "topicslog/internal/domain"

// CanRead is the sole read predicate: uid must be in allowedUids.
func CanRead(topic *domain.Topic, uid string) bool {
	if topic == nil || uid == "" {
		return false
	}
	for _, allowed := range topic.AllowedUIDs {
		if allowed == uid {
			return true
		}
	}
	return false
}

// CanWrite allows the owner and edit grants. Grants written without a role
// predate read-only sharing and count as edit.
func CanWrite(topic *domain.Topic, uid string) bool {
	if !CanRead(topic, uid) {
		return false
	}
	if IsOwner(topic, uid) {
		return true
	}
	for _, g := range topic.SharedWith {
		if g.UID == uid && (g.Role == domain.RoleEdit || g.Role == "") {
			return true
		}
	}
	return false
}

func IsOwner(topic *domain.Topic, uid string) bool {
	return topic != nil && uid != "" && topic.OwnerUID == uid
}

// RoleOf describes uid's access for display: owner, edit, read or empty.
func RoleOf(topic *domain.Topic, uid string) string {
	switch {
	case IsOwner(topic, uid):
		return "owner"
	case CanWrite(topic, uid):
		return string(domain.RoleEdit)
	case CanRead(topic, uid):
		return string(domain.RoleRead)
	}
	return ""
}
