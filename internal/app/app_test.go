package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/config"
	"github.com/dreamer-zq/savekit/internal/event"
	"github.com/dreamer-zq/savekit/internal/migration"
	"github.com/dreamer-zq/savekit/internal/savedata"
)

func noPassword(string) (string, error) {
	return "", errors.New("no terminal in tests")
}

func testConfig(t *testing.T) *config.NodeConfig {
	t.Helper()
	cfg := config.Default()
	cfg.ConfigDir = t.TempDir()
	cfg.Storage.Path = "saves"
	cfg.Server.HTTP.Host = "127.0.0.1"
	cfg.Server.HTTP.Port = 0
	return cfg
}

func TestNewAssemblesPipeline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Serializer = "yaml"
	cfg.Pipeline.SchemaVersion = 2
	cfg.Pipeline.Ciphers = []config.CipherConfig{
		{Type: "rotate", Shift: 5},
		{Type: "xor", Key: "k1"},
		{Type: "aes-gcm", PasswordEnv: "SAVEKIT_TEST_PW"},
	}

	var asked []string
	rec := &event.Recorder{}
	a, err := New(cfg, zap.NewNop(),
		WithPasswordReader(func(env string) (string, error) {
			asked = append(asked, env)
			return "Sup3r!secret", nil
		}),
		WithObserver(rec))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, []string{"SAVEKIT_TEST_PW"}, asked)

	ctx := context.Background()
	svc := a.Service()
	assert.Equal(t, 2, svc.SchemaVersion())
	require.NoError(t, svc.Save(ctx, "slot", map[string]int{"gold": 10}))
	assert.Equal(t, map[string]int{"gold": 10}, savedata.Load(ctx, svc, "slot", map[string]int(nil)))
	assert.Equal(t, []event.Kind{event.SaveSuccess, event.LoadSuccess}, rec.Kinds())

	// the file backend lives under the config directory
	_, err = os.Stat(filepath.Join(cfg.ConfigDir, "saves", "slot.sav"))
	assert.NoError(t, err)

	families, err := a.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "savekit_events_total" {
			found = true
		}
	}
	assert.True(t, found, "savekit_events_total not registered")
}

func TestNewWithMigrations(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "memory"
	cfg.Pipeline.SchemaVersion = 2

	chain, err := migration.NewChain(migration.Migrator{From: 1, To: 2, Fn: func(p string) (string, error) {
		return p, nil
	}})
	require.NoError(t, err)
	rec := &event.Recorder{}
	a, err := New(cfg, zap.NewNop(), WithMigrations(chain), WithObserver(rec), WithPasswordReader(noPassword))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	require.NoError(t, a.backend.Store(ctx, "old", `{"schemaVersion":1,"payload":"\"v1\""}`))
	assert.Equal(t, "v1", savedata.Load(ctx, a.Service(), "old", ""))
	assert.Equal(t, []event.Kind{event.LoadSuccess}, rec.Kinds())
}

func TestNewErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Ciphers = []config.CipherConfig{{Type: "chacha20"}}
	_, err := New(cfg, zap.NewNop(), WithPasswordReader(noPassword))
	assert.ErrorContains(t, err, "failed to read password")

	cfg = testConfig(t)
	cfg.Pipeline.Serializer = "xml"
	_, err = New(cfg, zap.NewNop(), WithPasswordReader(noPassword))
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Storage.Type = "tape"
	_, err = New(cfg, zap.NewNop(), WithPasswordReader(noPassword))
	assert.Error(t, err)
}

func TestBuildCipherChain(t *testing.T) {
	chain, err := BuildCipherChain([]config.CipherConfig{
		{Type: "gzip"},
		{Type: "aes-cbc", Password: "inline-password"},
		{Type: "base64"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gzip", "aes-cbc", "base64"}, chain.Names())

	_, err = BuildCipherChain([]config.CipherConfig{{Type: "aes-gcm"}}, nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "leveldb"
	a, err := New(cfg, zap.NewNop(), WithPasswordReader(noPassword))
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	assert.NotNil(t, a.API().Addr())
	require.NoError(t, a.Stop())
}
