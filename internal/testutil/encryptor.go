package testutil

import (
	"si-go/internal/encryption"
	"si-go/internal/si"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() si.Encryptor {
	return encryption.NewTestEncryptor()
}
