package crypto

import (
	"errors"
	"strings"
	"testing"
)

var roundTripInputs = []string{
	"",
	"a",
	"secret",
	`{"name":"Player1","score":100}`,
	"ünïcødé ✓ 日本語 🎮",
	strings.Repeat("0123456789abcdef", 17),
}

func allEncryptors(t *testing.T) []Encryptor {
	t.Helper()

	rot, err := NewRotation(13)
	if err != nil {
		t.Fatalf("rotation: %v", err)
	}
	xor, err := NewXOR([]byte("k3y"))
	if err != nil {
		t.Fatalf("xor: %v", err)
	}
	key := []byte("12345678901234567890123456789012")
	cbc, err := NewAESCBCWithKey(key)
	if err != nil {
		t.Fatalf("aes-cbc: %v", err)
	}
	gcm, err := NewAESGCMWithKey(key)
	if err != nil {
		t.Fatalf("aes-gcm: %v", err)
	}
	cha, err := NewChaCha20WithKey(key)
	if err != nil {
		t.Fatalf("chacha20: %v", err)
	}
	return []Encryptor{Identity{}, rot, xor, cbc, gcm, cha, Base64{}, Gzip{}}
}

func TestEncryptorsRoundTrip(t *testing.T) {
	for _, e := range allEncryptors(t) {
		for _, in := range roundTripInputs {
			enc, err := e.Encrypt(in)
			if err != nil {
				t.Fatalf("%s: encrypt %q: %v", e.Name(), in, err)
			}
			dec, err := e.Decrypt(enc)
			if err != nil {
				t.Fatalf("%s: decrypt %q: %v", e.Name(), in, err)
			}
			if dec != in {
				t.Fatalf("%s: round trip mismatch. Expected: %q, Got: %q", e.Name(), in, dec)
			}
		}
	}
}

func TestEncryptorsChangeNonEmptyInput(t *testing.T) {
	for _, e := range allEncryptors(t) {
		if e.Name() == "identity" {
			continue
		}
		for _, in := range roundTripInputs {
			if in == "" {
				continue
			}
			enc, err := e.Encrypt(in)
			if err != nil {
				t.Fatalf("%s: encrypt: %v", e.Name(), err)
			}
			if enc == in {
				t.Fatalf("%s: ciphertext equals plaintext for %q", e.Name(), in)
			}
		}
	}
}

// tagger appends a marker so the order of links is visible in the output
type tagger struct{ tag string }

func (g tagger) Encrypt(s string) (string, error) { return s + g.tag, nil }
func (g tagger) Decrypt(s string) (string, error) {
	if !strings.HasSuffix(s, g.tag) {
		return "", errors.New("missing tag " + g.tag)
	}
	return strings.TrimSuffix(s, g.tag), nil
}
func (g tagger) Name() string { return "tag" + g.tag }

func TestChainOrder(t *testing.T) {
	a, b := tagger{"A"}, tagger{"B"}
	chain := Chain{a, b}

	enc, err := chain.Encrypt("x")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if enc != "xAB" {
		t.Fatalf("expected B(A(x)) = %q, got %q", "xAB", enc)
	}

	// Decrypt must peel B first; a chain decrypting A first would fail on the tag check.
	dec, err := chain.Decrypt(enc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if dec != "x" {
		t.Fatalf("expected %q, got %q", "x", dec)
	}

	if _, err := (Chain{b, a}).Decrypt(enc); err == nil {
		t.Fatal("reversed chain should not decrypt")
	}
}

func TestChainOrderWithRealCiphers(t *testing.T) {
	xor, _ := NewXOR([]byte("mask"))
	rot, _ := NewRotation(7)
	chain := Chain{xor, rot}

	in := "chain-order"
	want, _ := xor.Encrypt(in)
	want, _ = rot.Encrypt(want)

	got, err := chain.Encrypt(in)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if got != want {
		t.Fatalf("chain encrypt mismatch. Expected: %q, Got: %q", want, got)
	}
	plain, err := chain.Decrypt(got)
	if err != nil || plain != in {
		t.Fatalf("chain decrypt = %q, %v", plain, err)
	}
}

func TestEmptyChainIsIdentity(t *testing.T) {
	var chain Chain
	out, err := chain.Encrypt("same")
	if err != nil || out != "same" {
		t.Fatalf("encrypt = %q, %v", out, err)
	}
	out, err = chain.Decrypt("same")
	if err != nil || out != "same" {
		t.Fatalf("decrypt = %q, %v", out, err)
	}
}

func TestChainDecryptFailureNamesStage(t *testing.T) {
	gcm, err := NewAESGCMWithKey([]byte("12345678901234567890123456789012"))
	if err != nil {
		t.Fatalf("aes-gcm: %v", err)
	}
	chain := Chain{Base64{}, gcm}

	_, err = chain.Decrypt("not base64 at all!")
	if err == nil {
		t.Fatal("expected decrypt failure")
	}
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
	if !strings.Contains(err.Error(), "aes-gcm") {
		t.Fatalf("error should name the failing stage: %v", err)
	}
}

func TestAuthenticatedCiphersRejectWrongKey(t *testing.T) {
	k1 := []byte("12345678901234567890123456789012")
	k2 := []byte("abcdefghijklmnopqrstuvwxyz012345")

	g1, _ := NewAESGCMWithKey(k1)
	g2, _ := NewAESGCMWithKey(k2)
	enc, err := g1.Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := g2.Decrypt(enc); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt with wrong key, got %v", err)
	}

	c1, _ := NewChaCha20WithKey(k1)
	c2, _ := NewChaCha20WithKey(k2)
	enc, err = c1.Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := c2.Decrypt(enc); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt with wrong key, got %v", err)
	}
}

func TestAESCBCRejectsMalformedCiphertext(t *testing.T) {
	cbc, err := NewAESCBCWithKey([]byte("12345678901234567890123456789012"))
	if err != nil {
		t.Fatalf("aes-cbc: %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"too short", "AAAA"},
		{"not block aligned", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cbc.Decrypt(tt.input); !errors.Is(err, ErrDecrypt) {
				t.Fatalf("expected ErrDecrypt, got %v", err)
			}
		})
	}
}

func TestAESCBCFreshIVPerCall(t *testing.T) {
	cbc, _ := NewAESCBCWithKey([]byte("12345678901234567890123456789012"))
	a, _ := cbc.Encrypt("same input")
	b, _ := cbc.Encrypt("same input")
	if a == b {
		t.Fatal("two encryptions should use different IVs")
	}
}

func TestPasswordDerivedCiphersAgree(t *testing.T) {
	c1, err := NewAESCBC("correct horse")
	if err != nil {
		t.Fatalf("aes-cbc: %v", err)
	}
	c2, err := NewAESCBC("correct horse")
	if err != nil {
		t.Fatalf("aes-cbc: %v", err)
	}
	enc, _ := c1.Encrypt("shared")
	dec, err := c2.Decrypt(enc)
	if err != nil || dec != "shared" {
		t.Fatalf("same password should decrypt: %q, %v", dec, err)
	}

	if _, err := NewAESCBC(""); err == nil {
		t.Fatal("empty password should be rejected")
	}
	if _, err := NewChaCha20(""); err == nil {
		t.Fatal("empty password should be rejected")
	}
}

func TestRotation(t *testing.T) {
	if _, err := NewRotation(0); err == nil {
		t.Fatal("zero shift should be rejected")
	}
	if _, err := NewRotation(scalarCount); err == nil {
		t.Fatal("full-cycle shift should be rejected")
	}

	r, err := NewRotation(-3)
	if err != nil {
		t.Fatalf("negative shift: %v", err)
	}
	enc, _ := r.Encrypt("d")
	if enc != "a" {
		t.Fatalf("expected %q, got %q", "a", enc)
	}

	// Runes next to the surrogate block must stay valid after rotation.
	r1, _ := NewRotation(1)
	enc, err = r1.Encrypt(string(rune(0xD7FF)))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if enc != string(rune(0xE000)) {
		t.Fatalf("expected U+E000, got %U", []rune(enc)[0])
	}
	last := string(rune(0x10FFFF))
	enc, _ = r1.Encrypt(last)
	if enc != "\x00" {
		t.Fatalf("expected wrap to U+0000, got %q", enc)
	}

	if _, err := r1.Encrypt("\xff\xfe"); err == nil {
		t.Fatal("invalid UTF-8 should be rejected")
	}
}

func TestXORRejectsEmptyKey(t *testing.T) {
	if _, err := NewXOR(nil); err == nil {
		t.Fatal("empty key should be rejected")
	}
}

func TestBuild(t *testing.T) {
	chain, err := Build([]Spec{
		{Type: TypeXOR, Key: "k"},
		{Type: TypeRotate, Shift: 5},
		{Type: TypeGzip},
		{Type: TypeBase64},
		{Type: TypeIdentity},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"xor", "rotate", "gzip", "base64", "identity"}
	got := chain.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := Build([]Spec{{Type: "rot13000"}}); err == nil {
		t.Fatal("unknown type should fail")
	}
	if _, err := Build([]Spec{{Type: TypeXOR}}); err == nil {
		t.Fatal("xor without key should fail")
	}
}
