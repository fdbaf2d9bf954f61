package serializer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type profile struct {
	Name   string            `json:"name" yaml:"name"`
	Level  int               `json:"level" yaml:"level"`
	Ratio  float64           `json:"ratio" yaml:"ratio"`
	Flags  map[string]bool   `json:"flags,omitempty" yaml:"flags,omitempty"`
	Nested *profile          `json:"nested,omitempty" yaml:"nested,omitempty"`
	Extra  map[string]string `json:"-" yaml:"-"`
}

func all() []Serializer {
	return []Serializer{JSON{}, YAML{}}
}

func TestRoundTrip(t *testing.T) {
	in := profile{
		Name:   "勇者 \"quoted\"\nline",
		Level:  -3,
		Ratio:  0.1,
		Flags:  map[string]bool{"b": true, "a": false},
		Nested: &profile{Name: "child"},
	}
	for _, s := range all() {
		t.Run(s.Name(), func(t *testing.T) {
			text, err := s.Marshal(in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var out profile
			if err := s.Unmarshal(text, &out); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if out.Name != in.Name || out.Level != in.Level || out.Ratio != in.Ratio {
				t.Errorf("round trip = %+v, want %+v", out, in)
			}
			if len(out.Flags) != 2 || !out.Flags["b"] || out.Flags["a"] {
				t.Errorf("Flags = %v", out.Flags)
			}
			if out.Nested == nil || out.Nested.Name != "child" {
				t.Errorf("Nested = %+v", out.Nested)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	v := map[string]int{"z": 1, "a": 2, "m": 3}
	for _, s := range all() {
		first, err := s.Marshal(v)
		if err != nil {
			t.Fatalf("%s: Marshal() error = %v", s.Name(), err)
		}
		for i := 0; i < 20; i++ {
			again, _ := s.Marshal(v)
			if again != first {
				t.Fatalf("%s: Marshal() not deterministic: %q vs %q", s.Name(), first, again)
			}
		}
	}
}

func TestSchemaTolerance(t *testing.T) {
	tests := []struct {
		s    Serializer
		text string
	}{
		{JSON{}, `{"name":"p","unknown":42}`},
		{YAML{}, "name: p\nunknown: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.s.Name(), func(t *testing.T) {
			var out profile
			if err := tt.s.Unmarshal(tt.text, &out); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if out.Name != "p" || out.Level != 0 || out.Flags != nil {
				t.Errorf("Unmarshal() = %+v, want only name set", out)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		s    Serializer
		text string
	}{
		{"json empty", JSON{}, ""},
		{"json malformed", JSON{}, "{"},
		{"json wrong type", JSON{}, `{"level":"high"}`},
		{"json trailing data", JSON{}, `{"name":"p"} {"name":"q"}`},
		{"yaml empty", YAML{}, ""},
		{"yaml malformed", YAML{}, "level: [1"},
		{"yaml wrong type", YAML{}, "level: high\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out profile
			err := tt.s.Unmarshal(tt.text, &out)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Unmarshal(%q) error = %v, want ErrDecode", tt.text, err)
			}
		})
	}
}

func TestLargeIntegers(t *testing.T) {
	const big = "9007199254740993" // 2^53 + 1, not representable as float64

	var decoded any
	if err := (JSON{}).Unmarshal(`{"score":`+big+`}`, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, s := range all() {
		t.Run(s.Name(), func(t *testing.T) {
			text, err := s.Marshal(decoded)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !strings.Contains(text, big) || strings.Contains(text, `"`+big+`"`) {
				t.Errorf("Marshal() = %q, want the unquoted literal %s", text, big)
			}
			var out any
			if err := s.Unmarshal(text, &out); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			m, ok := out.(map[string]any)
			if !ok {
				t.Fatalf("Unmarshal() = %T, want map[string]any", out)
			}
			if got := fmt.Sprint(m["score"]); got != big {
				t.Errorf("score = %s, want %s", got, big)
			}

			var typed struct {
				Score int64 `json:"score" yaml:"score"`
			}
			if err := s.Unmarshal(text, &typed); err != nil {
				t.Fatalf("Unmarshal(typed) error = %v", err)
			}
			if typed.Score != 9007199254740993 {
				t.Errorf("typed score = %d", typed.Score)
			}
		})
	}
}

func TestInvalidUTF8Strings(t *testing.T) {
	in := "ok\xffok"

	text, err := (JSON{}).Marshal(in)
	if err != nil {
		t.Fatalf("JSON Marshal() error = %v", err)
	}
	var out string
	if err := (JSON{}).Unmarshal(text, &out); err != nil {
		t.Fatalf("JSON Unmarshal() error = %v", err)
	}
	if out != "ok\ufffdok" {
		t.Errorf("JSON round trip = %q, want replacement character", out)
	}

	text, err = (YAML{}).Marshal(in)
	if err != nil {
		t.Fatalf("YAML Marshal() error = %v", err)
	}
	out = ""
	if err := (YAML{}).Unmarshal(text, &out); err != nil {
		t.Fatalf("YAML Unmarshal() error = %v", err)
	}
	if out != in {
		t.Errorf("YAML round trip = %q, want %q", out, in)
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := (JSON{}).Marshal(func() {}); !errors.Is(err, ErrEncode) {
		t.Errorf("JSON Marshal(func) error = %v, want ErrEncode", err)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "json", "yaml"} {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if name != "" && s.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, s.Name())
		}
	}
	if _, err := New("xml"); err == nil {
		t.Error("New(xml) error = nil")
	}
}
