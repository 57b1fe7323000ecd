// Package identity maps human handles onto the credential ids the password
// authenticator understands, and keeps the reverse index used for sharing.
package identity

import (
	"strings"
	"unicode"
)

// CredentialDomain is the synthetic domain appended to every handle.
const CredentialDomain = "topicslog.local"

const maxHandleLength = 64

// NormalizeHandle trims and lowercases a handle. It is the key of the
// reverse index.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ToCredentialID turns a handle into a credential-style id. Handles that
// differ only in case map to the same id.
func ToCredentialID(handle string) string {
	return NormalizeHandle(handle) + "@" + CredentialDomain
}

// ValidHandle reports whether handle can be mapped to a credential id.
func ValidHandle(handle string) bool {
	h := strings.TrimSpace(handle)
	if h == "" || len(h) > maxHandleLength {
		return false
	}
	for _, r := range h {
		if r == '@' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
