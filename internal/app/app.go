package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/api"
	"github.com/dreamer-zq/savekit/internal/common"
	"github.com/dreamer-zq/savekit/internal/config"
	"github.com/dreamer-zq/savekit/internal/crypto"
	"github.com/dreamer-zq/savekit/internal/event"
	"github.com/dreamer-zq/savekit/internal/migration"
	"github.com/dreamer-zq/savekit/internal/savedata"
	"github.com/dreamer-zq/savekit/internal/serializer"
	"github.com/dreamer-zq/savekit/internal/storage"
)

// PasswordReader resolves a cipher password when the config does not carry one
type PasswordReader func(envVar string) (string, error)

// Option customizes how an App is assembled
type Option func(*options)

type options struct {
	readPassword PasswordReader
	migrations   *migration.Chain
	observers    []event.Publisher
}

// WithPasswordReader replaces the environment/terminal password prompt
func WithPasswordReader(r PasswordReader) Option {
	return func(o *options) { o.readPassword = r }
}

// WithMigrations installs the schema migrations for loaded envelopes
func WithMigrations(chain *migration.Chain) Option {
	return func(o *options) { o.migrations = chain }
}

// WithObserver subscribes an extra event observer
func WithObserver(p event.Publisher) Option {
	return func(o *options) { o.observers = append(o.observers, p) }
}

// App represents the main application
type App struct {
	config   *config.NodeConfig
	logger   *zap.Logger
	backend  storage.Backend
	saves    *savedata.Service
	registry *prometheus.Registry
	api      *api.Server
}

// New assembles the pipeline described by cfg
func New(cfg *config.NodeConfig, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{readPassword: common.ReadPassword}
	for _, opt := range opts {
		opt(o)
	}

	ser, err := serializer.New(cfg.Pipeline.Serializer)
	if err != nil {
		return nil, err
	}

	chain, err := BuildCipherChain(cfg.Pipeline.Ciphers, o.readPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher chain: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := event.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	bus := event.NewBus(event.NewLogObserver(logger.Named("events")), metrics)
	for _, obs := range o.observers {
		bus.Subscribe(obs)
	}

	backend, err := storage.Open(storageOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}

	saves, err := savedata.New(backend,
		savedata.WithSerializer(ser),
		savedata.WithCipherChain(chain),
		savedata.WithMigrations(o.migrations),
		savedata.WithSchemaVersion(cfg.Pipeline.SchemaVersion),
		savedata.WithPublisher(bus),
		savedata.WithLogger(logger.Named("savedata")),
	)
	if err != nil {
		common.LogMsgDo("close storage", backend.Close)
		return nil, fmt.Errorf("failed to create save service: %w", err)
	}

	apiConfig := &api.Config{
		HTTP: api.HTTPConfig{
			Host: cfg.Server.HTTP.Host,
			Port: cfg.Server.HTTP.Port,
		},
		Security: api.SecurityConfig{
			TLSEnabled: cfg.Security.TLSEnabled,
			CertFile:   cfg.Security.CertFile,
			KeyFile:    cfg.Security.KeyFile,
		},
		Auth: cfg.Security.APIAuth,
	}
	apiServer, err := api.NewServer(apiConfig, saves, registry, logger.Named("api"))
	if err != nil {
		common.LogMsgDo("close storage", backend.Close)
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	logger.Debug("Save pipeline assembled",
		zap.String("storage", cfg.Storage.Type),
		zap.String("serializer", ser.Name()),
		zap.Strings("ciphers", chain.Names()),
		zap.Int("schema_version", cfg.Pipeline.SchemaVersion))

	return &App{
		config:   cfg,
		logger:   logger,
		backend:  backend,
		saves:    saves,
		registry: registry,
		api:      apiServer,
	}, nil
}

// BuildCipherChain converts configured links into a chain. Password based
// links without an inline password ask readPassword, passing PasswordEnv.
func BuildCipherChain(links []config.CipherConfig, readPassword PasswordReader) (crypto.Chain, error) {
	specs := make([]crypto.Spec, 0, len(links))
	for i, l := range links {
		spec := crypto.Spec{Type: l.Type, Key: l.Key, Shift: l.Shift, Password: l.Password}
		if needsPassword(l.Type) && spec.Password == "" {
			if readPassword == nil {
				return nil, fmt.Errorf("cipher %d (%s): no password configured", i, l.Type)
			}
			pw, err := readPassword(l.PasswordEnv)
			if err != nil {
				return nil, fmt.Errorf("cipher %d (%s): failed to read password: %w", i, l.Type, err)
			}
			spec.Password = pw
		}
		specs = append(specs, spec)
	}
	return crypto.Build(specs)
}

func needsPassword(t string) bool {
	switch t {
	case crypto.TypeAESCBC, crypto.TypeAESGCM, crypto.TypeChaCha20:
		return true
	}
	return false
}

// storageOptions resolves a relative storage path against the config directory
func storageOptions(cfg *config.NodeConfig) storage.Options {
	path := cfg.Storage.Path
	if path != "" && !filepath.IsAbs(path) && cfg.ConfigDir != "" {
		path = filepath.Join(cfg.ConfigDir, path)
	}
	return storage.Options{
		Type:      cfg.Storage.Type,
		Path:      path,
		Extension: cfg.Storage.Extension,
		Redis: storage.RedisOptions{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		},
	}
}

// Service returns the save service
func (a *App) Service() *savedata.Service {
	return a.saves
}

// Registry returns the Prometheus registry served on /metrics
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// API returns the HTTP server
func (a *App) API() *api.Server {
	return a.api
}

// Start starts the HTTP API
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("Starting SaveKit...")

	if err := a.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	a.logger.Info("SaveKit started successfully",
		zap.String("storage", a.config.Storage.Type),
		zap.Int("schema_version", a.saves.SchemaVersion()),
		zap.Int("http_port", a.config.Server.HTTP.Port))
	return nil
}

// Stop stops the API server and closes storage
func (a *App) Stop() error {
	a.logger.Info("Stopping SaveKit...")

	var errs []error

	if err := a.api.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop API server: %w", err))
	}

	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}

	if len(errs) > 0 {
		a.logger.Error("Errors during shutdown", zap.Errors("errors", errs))
		return errs[0]
	}

	a.logger.Info("SaveKit stopped successfully")
	return nil
}

// Close releases storage without touching the API server. Used by one-shot commands.
func (a *App) Close() error {
	return a.backend.Close()
}
