package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dreamer-zq/savekit/internal/common"
)

// Identity leaves text unchanged. Meant for development builds.
type Identity struct{}

// Encrypt returns text
func (Identity) Encrypt(text string) (string, error) { return text, nil }

// Decrypt returns text
func (Identity) Decrypt(text string) (string, error) { return text, nil }

// Name returns "identity"
func (Identity) Name() string { return "identity" }

// Code points are rotated over the Unicode scalar values with the surrogate
// block removed, so every rotated rune is still valid UTF-8.
const (
	surrogateLo = 0xD800
	surrogateN  = 0x800
	scalarCount = utf8.MaxRune + 1 - surrogateN
)

// Rotation shifts every code point by a fixed distance.
type Rotation struct {
	shift int
}

// NewRotation returns a Rotation by shift code points. A shift that maps
// every rune onto itself is rejected.
func NewRotation(shift int) (*Rotation, error) {
	s := shift % scalarCount
	if s < 0 {
		s += scalarCount
	}
	if s == 0 {
		return nil, fmt.Errorf("rotation shift %d is a no-op", shift)
	}
	return &Rotation{shift: s}, nil
}

// Encrypt rotates every rune forward
func (r *Rotation) Encrypt(text string) (string, error) {
	return rotate(text, r.shift)
}

// Decrypt rotates every rune back
func (r *Rotation) Decrypt(text string) (string, error) {
	return rotate(text, scalarCount-r.shift)
}

// Name returns "rotate"
func (r *Rotation) Name() string { return "rotate" }

func rotate(text string, shift int) (string, error) {
	if !utf8.ValidString(text) {
		return "", errors.New("input is not valid UTF-8")
	}
	out := make([]rune, 0, len(text))
	for _, c := range text {
		i := int(c)
		if i >= surrogateLo {
			i -= surrogateN
		}
		i = (i + shift) % scalarCount
		if i >= surrogateLo {
			i += surrogateN
		}
		out = append(out, rune(i))
	}
	return string(out), nil
}

// XOR masks every byte with a repeating key and base64-encodes the result.
type XOR struct {
	key []byte
}

// NewXOR returns an XOR masker for key
func NewXOR(key []byte) (*XOR, error) {
	if len(key) == 0 {
		return nil, errors.New("xor key cannot be empty")
	}
	return &XOR{key: append([]byte(nil), key...)}, nil
}

// Encrypt masks text and returns standard base64
func (x *XOR) Encrypt(text string) (string, error) {
	return base64.StdEncoding.EncodeToString(x.mask([]byte(text))), nil
}

// Decrypt decodes base64 and unmasks
func (x *XOR) Decrypt(text string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(x.mask(b)), nil
}

// Name returns "xor"
func (x *XOR) Name() string { return "xor" }

func (x *XOR) mask(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ x.key[i%len(x.key)]
	}
	return out
}

// Base64 is an encoding-only link.
type Base64 struct{}

// Encrypt encodes text with standard base64
func (Base64) Encrypt(text string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// Decrypt decodes standard base64
func (Base64) Decrypt(text string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(b), nil
}

// Name returns "base64"
func (Base64) Name() string { return "base64" }

// Gzip compresses text and base64-encodes the result.
type Gzip struct{}

// Encrypt compresses text
func (Gzip) Encrypt(text string) (string, error) {
	b, err := common.Gzip([]byte(text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncrypt, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decrypt decompresses text
func (Gzip) Decrypt(text string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	plain, err := common.UnGzip(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(plain), nil
}

// Name returns "gzip"
func (Gzip) Name() string { return "gzip" }
