package serializer

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// NameJSON identifies the JSON serializer
const NameJSON = "json"

// JSON encodes values with encoding/json. Struct fields keep declaration order
// and map keys are sorted, which makes the output deterministic.
//
// Numbers decoded into interface values come back as json.Number so integers
// beyond 2^53 keep every digit. Invalid UTF-8 in strings is replaced with
// U+FFFD on encode; use YAML for strings that are not valid UTF-8.
type JSON struct{}

// Marshal serializes v into compact JSON
func (JSON) Marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", encodeErr(NameJSON, err)
	}
	return string(b), nil
}

// Unmarshal parses JSON text into v
func (JSON) Unmarshal(text string, v any) error {
	if text == "" {
		return decodeErr(NameJSON, errors.New("empty input"))
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return decodeErr(NameJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return decodeErr(NameJSON, errors.New("unexpected data after top-level value"))
	}
	return nil
}

// Name returns "json"
func (JSON) Name() string { return NameJSON }
