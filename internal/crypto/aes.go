package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	aesKeySize       = 32
)

// Fixed salt for deterministic key derivation: the same password always
// opens the same saves.
var pbkdf2Salt = []byte("savekit-cipher-salt-v1")

// DeriveKey stretches a password into a 32-byte AES-256 key using PBKDF2-SHA256
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("encryption password cannot be empty")
	}
	return pbkdf2.Key([]byte(password), pbkdf2Salt, pbkdf2Iterations, aesKeySize, sha256.New), nil
}

// AESCBC encrypts with AES-256 in CBC mode and PKCS7 padding. Output is
// base64(IV || ciphertext) with a fresh random IV per call.
type AESCBC struct {
	block cipher.Block
}

// NewAESCBC derives the key from password
func NewAESCBC(password string) (*AESCBC, error) {
	key, err := DeriveKey(password)
	if err != nil {
		return nil, err
	}
	return NewAESCBCWithKey(key)
}

// NewAESCBCWithKey uses a raw 16, 24 or 32 byte key
func NewAESCBCWithKey(key []byte) (*AESCBC, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &AESCBC{block: block}, nil
}

// Encrypt pads and encrypts text
func (c *AESCBC) Encrypt(text string) (string, error) {
	plain := pkcs7Pad([]byte(text), aes.BlockSize)

	out := make([]byte, aes.BlockSize+len(plain))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("%w: failed to generate IV: %w", ErrEncrypt, err)
	}
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[aes.BlockSize:], plain)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt decrypts and unpads text
func (c *AESCBC) Decrypt(text string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext has invalid length %d", ErrDecrypt, len(data))
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, body)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(unpadded), nil
}

// Name returns "aes-cbc"
func (c *AESCBC) Name() string { return "aes-cbc" }

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}

// AESGCM encrypts with AES-256-GCM. Output is base64(nonce || sealed) and
// tampering or a wrong key is detected on Decrypt.
type AESGCM struct {
	gcm cipher.AEAD
}

// NewAESGCM derives the key from password
func NewAESGCM(password string) (*AESGCM, error) {
	key, err := DeriveKey(password)
	if err != nil {
		return nil, err
	}
	return NewAESGCMWithKey(key)
}

// NewAESGCMWithKey uses a raw 16, 24 or 32 byte key
func NewAESGCMWithKey(key []byte) (*AESGCM, error) {
	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	// Create GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{gcm: gcm}, nil
}

// Encrypt seals text under a random nonce
func (c *AESGCM) Encrypt(text string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce: %w", ErrEncrypt, err)
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens text
func (c *AESGCM) Decrypt(text string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plain, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(plain), nil
}

// Name returns "aes-gcm"
func (c *AESGCM) Name() string { return "aes-gcm" }
