// Package serializer converts typed values to and from a single string.
//
// Implementations are deterministic: equal input produces byte-equal output.
// Decoding ignores fields the target type does not declare and leaves fields
// the text does not mention at their zero value, so saved data tolerates
// added and removed fields without a schema migration.
package serializer

import (
	"errors"
	"fmt"
)

// ErrDecode wraps every failure to parse text into a value
var ErrDecode = errors.New("decode failed")

// ErrEncode wraps every failure to turn a value into text
var ErrEncode = errors.New("encode failed")

// Serializer encodes and decodes values for the save pipeline.
type Serializer interface {
	// Marshal serializes v into text.
	Marshal(v any) (string, error)
	// Unmarshal deserializes text into v (must be a pointer).
	Unmarshal(text string, v any) error
	// Name returns the serializer identifier used for diagnostics.
	Name() string
}

// New returns the serializer registered under name
func New(name string) (Serializer, error) {
	switch name {
	case "", NameJSON:
		return JSON{}, nil
	case NameYAML:
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("unsupported serializer: %s", name)
	}
}

func decodeErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
}

func encodeErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEncode, name, err)
}
