package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/cyphexlabs/cyphex_backend/models"
)

// Vault encrypts and decrypts client-submitted secrets before they reach
// persistent storage. The key is process-wide and injected at construction;
// ciphertext is self-describing (nonce is prefixed) so decryption needs no
// external state.
type Vault struct {
	aead cipher.AEAD
}

// NewVault derives a 256-bit AES-GCM key from the configured secret.
func NewVault(key string) (*Vault, error) {
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}

// Encrypt returns base64 ciphertext for plaintext. Empty input maps to empty
// output without invoking the cipher.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Invalid or tampered ciphertext returns
// models.ErrDecryptionFailed; callers must treat that as "credentials
// unavailable", never as absent.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", models.ErrDecryptionFailed
	}
	if len(raw) < v.aead.NonceSize() {
		return "", models.ErrDecryptionFailed
	}
	nonce, sealed := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", models.ErrDecryptionFailed
	}
	return string(plaintext), nil
}
