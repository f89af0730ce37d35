package encryption

import (
	"fmt"

	"si-go/internal/config"
	"si-go/internal/si"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// A nil Encryptor means the cache is stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (si.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.IdentityPath == "" || cfg.RecipientPath == "" {
			return nil, fmt.Errorf("age encryption requires identity_path and recipient_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
