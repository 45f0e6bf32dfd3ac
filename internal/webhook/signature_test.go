package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		payload  []byte
		expected string
	}{
		{
			name:     "session event",
			secret:   "whsec-test",
			payload:  []byte(`{"type":"session.completed"}`),
			expected: "sha256=a9e8de175908d342b818c5253ce9f5f9783488e600341d07e0ea36cfc624f645",
		},
		{
			name:     "empty secret",
			secret:   "",
			payload:  []byte(`{}`),
			expected: "sha256=22f8eea909400af98adf3681a9f31923ef6b7fcba4abb553d92823a3e9d5c25e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sign(tt.secret, tt.payload))
		})
	}
}

func TestVerify(t *testing.T) {
	secret := "whsec-test"
	payload := []byte(`{"type":"session.failed"}`)
	validSignature := Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		expected  bool
	}{
		{"valid signature", secret, payload, validSignature, true},
		{"bare digest", secret, payload, strings.TrimPrefix(validSignature, "sha256="), true},
		{"upper case", secret, payload, strings.ToUpper(validSignature), true},
		{"surrounding space", secret, payload, " " + validSignature + "\n", true},
		{"truncated digest", secret, payload, validSignature[:len(validSignature)-2], false},
		{"not hex", secret, payload, "sha256=zz", false},
		{"empty", secret, payload, "", false},
		{"wrong secret", "other", payload, validSignature, false},
		{"modified payload", secret, []byte(`{"type":"session.completed"}`), validSignature, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Verify(tt.secret, tt.payload, tt.signature))
		})
	}
}
