package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCredentialID_CaseInsensitive(t *testing.T) {
	assert.Equal(t, "ramesh01@topicslog.local", ToCredentialID("RAMESH01"))
	assert.Equal(t, ToCredentialID("Ramesh01"), ToCredentialID("ramesh01"))
	assert.Equal(t, ToCredentialID("  ramesh01 "), ToCredentialID("RAMESH01"))
}

func TestValidHandle(t *testing.T) {
	tests := []struct {
		handle string
		valid  bool
	}{
		{"ramesh01", true},
		{"Sita_K", true},
		{"", false},
		{"   ", false},
		{"a b", false},
		{"me@example.com", false},
		{"tab\there", false},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidHandle(tt.handle))
		})
	}
}
