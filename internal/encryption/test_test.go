package encryption

import (
	"bytes"
	"testing"
)

func TestTestEncryptor_RoundTrip(t *testing.T) {
	e := NewTestEncryptor()
	if err := e.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() did not record the call")
	}

	input := []byte(`{"team": {}}`)

	var ciphertext bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &ciphertext); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.HasPrefix(ciphertext.Bytes(), testHeader) {
		t.Error("ciphertext is missing the test header")
	}

	var plaintext bytes.Buffer
	if err := e.Decrypt(&ciphertext, &plaintext); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(plaintext.Bytes(), input) {
		t.Errorf("Decrypt() = %q, want %q", plaintext.Bytes(), input)
	}
}

func TestTestEncryptor_Decrypt_RejectsPlaintext(t *testing.T) {
	e := NewTestEncryptor()

	var out bytes.Buffer
	if err := e.Decrypt(bytes.NewReader([]byte(`{"team": {}}`)), &out); err == nil {
		t.Error("Decrypt() of plaintext succeeded, want error")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		paths   bool
		wantErr bool
		wantNil bool
	}{
		{name: "none", typ: "none", wantNil: true},
		{name: "empty type means none", typ: "", wantNil: true},
		{name: "test", typ: "test"},
		{name: "age", typ: "age", paths: true},
		{name: "age without paths", typ: "age", wantErr: true, wantNil: true},
		{name: "unknown", typ: "rot13", wantErr: true, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configFor(tt.typ, tt.paths, t.TempDir())
			got, err := NewEncryptorFromConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewEncryptorFromConfig() returned nil = %v, wantNil %v", got == nil, tt.wantNil)
			}
		})
	}
}
