package crypto

import (
	"fmt"
)

// Link types accepted by Build
const (
	TypeIdentity = "identity"
	TypeRotate   = "rotate"
	TypeXOR      = "xor"
	TypeAESCBC   = "aes-cbc"
	TypeAESGCM   = "aes-gcm"
	TypeChaCha20 = "chacha20"
	TypeBase64   = "base64"
	TypeGzip     = "gzip"
)

// Spec describes one chain link in configuration terms
type Spec struct {
	Type     string
	Key      string
	Shift    int
	Password string
}

// New builds a single encryptor from spec
func New(spec Spec) (Encryptor, error) {
	switch spec.Type {
	case TypeIdentity:
		return Identity{}, nil
	case TypeRotate:
		return NewRotation(spec.Shift)
	case TypeXOR:
		return NewXOR([]byte(spec.Key))
	case TypeAESCBC:
		return NewAESCBC(spec.Password)
	case TypeAESGCM:
		return NewAESGCM(spec.Password)
	case TypeChaCha20:
		return NewChaCha20(spec.Password)
	case TypeBase64:
		return Base64{}, nil
	case TypeGzip:
		return Gzip{}, nil
	default:
		return nil, fmt.Errorf("unsupported cipher type: %s", spec.Type)
	}
}

// Build constructs a chain from specs, preserving their order
func Build(specs []Spec) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, s := range specs {
		e, err := New(s)
		if err != nil {
			return nil, fmt.Errorf("cipher %d (%s): %w", i, s.Type, err)
		}
		chain = append(chain, e)
	}
	return chain, nil
}
