package crypt

import (
	"errors"
	"testing"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		key       string
	}{
		{name: "card number", plaintext: "4111111111111234", key: "dev_payment_key"},
		{name: "cvv", plaintext: "123", key: "dev_payment_key"},
		{name: "empty plaintext", plaintext: "", key: "k"},
		{name: "key shorter than data", plaintext: "abcdefghij", key: "ab"},
		{name: "key longer than data", plaintext: "ab", key: "very-long-key-value"},
		{name: "arbitrary bytes", plaintext: "\x00\x01\x02\xff\xfe hello", key: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := Encrypt(tt.plaintext, tt.key)
			if err != nil {
				t.Fatalf("Encrypt error: %v", err)
			}

			got, err := Decrypt(ct, tt.key)
			if err != nil {
				t.Fatalf("Decrypt error: %v", err)
			}
			if got != tt.plaintext {
				t.Fatalf("round trip = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncrypt_ProducesDifferentCiphertext(t *testing.T) {
	ct, err := Encrypt("4111111111111234", "dev_payment_key")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if ct == "4111111111111234" {
		t.Fatalf("ciphertext must differ from plaintext")
	}
}

func TestDecrypt_InvalidBase64(t *testing.T) {
	if _, err := Decrypt("not-valid-base64!!!", "key"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
}

func TestEmptyKey(t *testing.T) {
	if _, err := Encrypt("data", ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Encrypt: expected ErrEmptyKey, got %v", err)
	}
	if _, err := Decrypt("ZGF0YQ==", ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Decrypt: expected ErrEmptyKey, got %v", err)
	}
}

func TestDecrypt_WrongKeyGivesDifferentPlaintext(t *testing.T) {
	ct, err := Encrypt("4111111111111234", "key-one")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	got, err := Decrypt(ct, "key-two")
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if got == "4111111111111234" {
		t.Fatalf("decryption with wrong key must not restore plaintext")
	}
}
