package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"si-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		Type:          "age",
		IdentityPath:  filepath.Join(dir, "keys", "si.key"),
		RecipientPath: filepath.Join(dir, "keys", "si.pub"),
	}
	return NewAgeEncryptor(cfg)
}

func TestAgeEncryptor_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}

	info, err := os.Stat(e.identityPath)
	if err != nil {
		t.Fatalf("stat identity: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("identity permissions = %o, want 600", perm)
	}
}

func TestAgeEncryptor_Setup_KeepsExistingKeys(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup(); err != nil {
		t.Fatalf("first Setup() error = %v", err)
	}
	before, err := os.ReadFile(e.identityPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Setup(); err != nil {
		t.Fatalf("second Setup() error = %v", err)
	}
	after, err := os.ReadFile(e.identityPath)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(before, after) {
		t.Error("second Setup() replaced the identity")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "cache document", input: []byte(`{"me": {"id": "abc"}}`)},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t)
			if err := e.Setup(); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var ciphertext bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &ciphertext); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(ciphertext.Bytes(), tt.input) {
				t.Error("ciphertext contains the plaintext")
			}

			var plaintext bytes.Buffer
			if err := e.Decrypt(&ciphertext, &plaintext); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(plaintext.Bytes(), tt.input) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", plaintext.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_Decrypt_WrongIdentity(t *testing.T) {
	t.Parallel()

	a := newTestAgeEncryptor(t)
	b := newTestAgeEncryptor(t)
	if err := a.Setup(); err != nil {
		t.Fatal(err)
	}
	if err := b.Setup(); err != nil {
		t.Fatal(err)
	}

	var ciphertext bytes.Buffer
	if err := a.Encrypt(bytes.NewReader([]byte("secret roster")), &ciphertext); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	var plaintext bytes.Buffer
	if err := b.Decrypt(&ciphertext, &plaintext); err == nil {
		t.Error("Decrypt() with another identity succeeded, want error")
	}
}

func TestAgeEncryptor_Encrypt_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	var out bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("data")), &out); err == nil {
		t.Error("Encrypt() before Setup succeeded, want error")
	}
}

func configFor(typ string, withPaths bool, dir string) config.EncryptionConfig {
	cfg := config.EncryptionConfig{Type: typ}
	if withPaths {
		cfg.IdentityPath = filepath.Join(dir, "si.key")
		cfg.RecipientPath = filepath.Join(dir, "si.pub")
	}
	return cfg
}
