package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
server:
  http:
    host: 127.0.0.1
    port: 9090
storage:
  type: leveldb
  path: ./db
pipeline:
  serializer: yaml
  schema_version: 3
  ciphers:
    - type: rotate
      shift: 7
    - type: xor
      key: k1
    - type: aes-gcm
      password_env: GAME_SAVE_PASSWORD
logging:
  level: debug
  environment: pro
  output: stdout
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Port != 9090 || cfg.Server.HTTP.Host != "127.0.0.1" {
		t.Errorf("Server.HTTP = %+v", cfg.Server.HTTP)
	}
	if cfg.Storage.Type != "leveldb" || cfg.Storage.Path != "./db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.Prefix != "savekit:" {
		t.Errorf("Storage.Redis.Prefix default = %q", cfg.Storage.Redis.Prefix)
	}
	if cfg.Pipeline.Serializer != "yaml" || cfg.Pipeline.SchemaVersion != 3 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if len(cfg.Pipeline.Ciphers) != 3 {
		t.Fatalf("Pipeline.Ciphers = %+v, want 3 links", cfg.Pipeline.Ciphers)
	}
	if c := cfg.Pipeline.Ciphers[0]; c.Type != "rotate" || c.Shift != 7 {
		t.Errorf("Ciphers[0] = %+v", c)
	}
	if c := cfg.Pipeline.Ciphers[2]; c.PasswordEnv != "GAME_SAVE_PASSWORD" {
		t.Errorf("Ciphers[2] = %+v", c)
	}
	if cfg.ConfigDir != filepath.Dir(path) {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, filepath.Dir(path))
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("SAVEKIT_SERVER_HTTP_PORT", "7070")
	t.Setenv("SAVEKIT_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Port != 7070 {
		t.Errorf("Server.HTTP.Port = %d, want 7070", cfg.Server.HTTP.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if cfg.Storage.Type != "file" || cfg.Storage.Extension != ".sav" {
		t.Errorf("Storage defaults = %+v", cfg.Storage)
	}
	if cfg.Pipeline.Serializer != "json" || cfg.Pipeline.SchemaVersion != 1 {
		t.Errorf("Pipeline defaults = %+v", cfg.Pipeline)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NodeConfig)
		wantErr string
	}{
		{"unknown storage", func(c *NodeConfig) { c.Storage.Type = "tape" }, "storage type"},
		{"file without path", func(c *NodeConfig) { c.Storage.Path = "" }, "storage path"},
		{"redis without addr", func(c *NodeConfig) {
			c.Storage.Type = "redis"
			c.Storage.Redis.Addr = ""
		}, "redis address"},
		{"unknown serializer", func(c *NodeConfig) { c.Pipeline.Serializer = "xml" }, "serializer"},
		{"negative version", func(c *NodeConfig) { c.Pipeline.SchemaVersion = -1 }, "non-negative"},
		{"unknown cipher", func(c *NodeConfig) {
			c.Pipeline.Ciphers = []CipherConfig{{Type: "enigma"}}
		}, "unsupported type"},
		{"xor without key", func(c *NodeConfig) {
			c.Pipeline.Ciphers = []CipherConfig{{Type: "xor"}}
		}, "requires a key"},
		{"rotate without shift", func(c *NodeConfig) {
			c.Pipeline.Ciphers = []CipherConfig{{Type: "rotate"}}
		}, "non-zero shift"},
		{"auth without secret", func(c *NodeConfig) { c.Security.APIAuth.Enabled = true }, "JWT secret"},
		{"tls without cert", func(c *NodeConfig) { c.Security.TLSEnabled = true }, "cert_file"},
		{"bad log level", func(c *NodeConfig) { c.Logging.Level = "loud" }, "log level"},
		{"bad log environment", func(c *NodeConfig) { c.Logging.Environment = "prod" }, "log environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  type: tape\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for unsupported storage type")
	}

	path = writeConfig(t, "storage: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for malformed YAML")
	}
}
