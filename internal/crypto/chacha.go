package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Tunables for scrypt key derivation.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var scryptSalt = []byte("savekit-xchacha-salt-v1")

// ChaCha20 seals text with XChaCha20-Poly1305 under a scrypt-derived key.
// Output is base64(nonce || sealed).
type ChaCha20 struct {
	aead cipher.AEAD
}

// NewChaCha20 derives the key from password
func NewChaCha20(password string) (*ChaCha20, error) {
	if password == "" {
		return nil, errors.New("encryption password cannot be empty")
	}
	key, err := scrypt.Key([]byte(password), scryptSalt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return NewChaCha20WithKey(key)
}

// NewChaCha20WithKey uses a raw 32-byte key
func NewChaCha20WithKey(key []byte) (*ChaCha20, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}
	return &ChaCha20{aead: aead}, nil
}

// Encrypt seals text under a random 24-byte nonce
func (c *ChaCha20) Encrypt(text string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce: %w", ErrEncrypt, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens text
func (c *ChaCha20) Decrypt(text string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(data) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	nonce, sealed := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: wrong password or corrupted data", ErrDecrypt)
	}
	return string(plain), nil
}

// Name returns "chacha20"
func (c *ChaCha20) Name() string { return "chacha20" }
