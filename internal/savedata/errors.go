package savedata

import (
	"errors"
	"fmt"

	"github.com/dreamer-zq/savekit/internal/crypto"
	"github.com/dreamer-zq/savekit/internal/migration"
	"github.com/dreamer-zq/savekit/internal/serializer"
	"github.com/dreamer-zq/savekit/internal/storage"
)

// Failure kinds surfaced by the Service. Backend I/O failures are returned
// as *storage.IoError and match none of these except ErrInvalidKey.
var (
	ErrNotFound      = errors.New("save data not found")
	ErrDecode        = serializer.ErrDecode
	ErrEncode        = serializer.ErrEncode
	ErrFutureVersion = errors.New("envelope schema version is newer than supported")
	ErrEncrypt       = crypto.ErrEncrypt
	ErrDecrypt       = crypto.ErrDecrypt
	ErrMigration     = migration.ErrMigration
	ErrPanic         = errors.New("pipeline stage panicked")
	ErrInvalidKey    = storage.ErrInvalidKey
)

// guard runs fn and converts a panic into an ErrPanic error
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, stage, r)
		}
	}()
	return fn()
}
