package si

import "io"

// Encryptor protects the cache document at rest. It holds its own key
// material, so reads and writes need no user interaction once Setup has run.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `si setup`.
	Setup() error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error

	// IsConfigured reports whether the key material exists.
	IsConfigured() bool
}
