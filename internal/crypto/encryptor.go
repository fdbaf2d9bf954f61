package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrEncrypt wraps every failure raised while encrypting
	ErrEncrypt = errors.New("encryption failed")

	// ErrDecrypt wraps every failure raised while decrypting, including
	// malformed ciphertext and wrong keys
	ErrDecrypt = errors.New("decryption failed")
)

// Encryptor converts a string to and from another string.
// Implementations hold only state fixed at construction and are safe for
// concurrent use.
type Encryptor interface {
	Encrypt(text string) (string, error)
	Decrypt(text string) (string, error)
	Name() string
}

// Chain is an ordered list of encryptors applied as one step.
// An empty chain is the identity.
type Chain []Encryptor

// Encrypt applies every link in order: En(...E1(text))
func (c Chain) Encrypt(text string) (string, error) {
	out := text
	for i, e := range c {
		var err error
		out, err = e.Encrypt(out)
		if err != nil {
			return "", stageErr(ErrEncrypt, i, e, err)
		}
	}
	return out, nil
}

// Decrypt applies every link in reverse order: D1(...Dn(text))
func (c Chain) Decrypt(text string) (string, error) {
	out := text
	for i := len(c) - 1; i >= 0; i-- {
		var err error
		out, err = c[i].Decrypt(out)
		if err != nil {
			return "", stageErr(ErrDecrypt, i, c[i], err)
		}
	}
	return out, nil
}

// Names lists the link names in chain order
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name()
	}
	return names
}

func stageErr(kind error, index int, e Encryptor, err error) error {
	if errors.Is(err, kind) {
		return fmt.Errorf("stage %d (%s): %w", index, e.Name(), err)
	}
	return fmt.Errorf("%w: stage %d (%s): %w", kind, index, e.Name(), err)
}
