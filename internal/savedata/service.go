package savedata

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/common"
	"github.com/dreamer-zq/savekit/internal/crypto"
	"github.com/dreamer-zq/savekit/internal/event"
	"github.com/dreamer-zq/savekit/internal/migration"
	"github.com/dreamer-zq/savekit/internal/serializer"
	"github.com/dreamer-zq/savekit/internal/storage"
)

// Envelope is the outermost record written to the backend
type Envelope struct {
	SchemaVersion int    `json:"schemaVersion" yaml:"schemaVersion"`
	Payload       string `json:"payload" yaml:"payload"`
}

// Service composes a backend, a serializer, a cipher chain and a migration
// chain into save, load, exists and delete operations.
//
// Nothing escapes a Service call as a panic. Save and Delete return an error
// and publish an event; Load returns the caller's default and publishes an
// event. Concurrent saves of the same key are not serialized: the backend's
// last write wins.
type Service struct {
	backend    storage.Backend
	serializer serializer.Serializer
	chain      crypto.Chain
	migrations *migration.Chain
	publisher  event.Publisher
	version    int
	logger     *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithSerializer sets the serializer used for payloads and envelopes (default JSON)
func WithSerializer(s serializer.Serializer) Option {
	return func(svc *Service) { svc.serializer = s }
}

// WithCipherChain sets the cipher chain (default empty, the identity)
func WithCipherChain(chain crypto.Chain) Option {
	return func(svc *Service) { svc.chain = chain }
}

// WithEncryptors sets the cipher chain from individual links
func WithEncryptors(links ...crypto.Encryptor) Option {
	return WithCipherChain(crypto.Chain(links))
}

// WithMigrations sets the migration chain
func WithMigrations(chain *migration.Chain) Option {
	return func(svc *Service) { svc.migrations = chain }
}

// WithPublisher sets the event publisher; nil disables events
func WithPublisher(p event.Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// WithSchemaVersion sets the version stamped on saves and targeted by loads (default 1)
func WithSchemaVersion(v int) Option {
	return func(svc *Service) { svc.version = v }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(svc *Service) { svc.logger = logger }
}

// New creates a Service around backend
func New(backend storage.Backend, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	svc := &Service{
		backend:    backend,
		serializer: serializer.JSON{},
		version:    1,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.serializer == nil {
		return nil, errors.New("serializer cannot be nil")
	}
	if svc.version < 0 {
		return nil, fmt.Errorf("schema version must be non-negative, got %d", svc.version)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.migrations == nil {
		svc.migrations = &migration.Chain{}
	}
	return svc, nil
}

// SchemaVersion returns the version the service saves and migrates to
func (s *Service) SchemaVersion() int {
	return s.version
}

// Backend returns the underlying backend
func (s *Service) Backend() storage.Backend {
	return s.backend
}

// Save serializes, encrypts, wraps and stores value under key. A failure at
// any step publishes SaveFailed and is returned; it never panics.
func (s *Service) Save(ctx context.Context, key string, value any) error {
	typeName := typeNameOf(value)
	if err := s.save(ctx, key, value); err != nil {
		s.logger.Debug("Save failed", zap.String("key", key), zap.String("type", typeName), zap.Error(err))
		s.publish(event.New(event.SaveFailed, key, typeName).WithError(err))
		return err
	}
	s.logger.Debug("Saved", zap.String("key", key), zap.String("type", typeName), zap.Int("schema_version", s.version))
	s.publish(event.New(event.SaveSuccess, key, typeName))
	return nil
}

// SaveAsync runs Save on its own goroutine and delivers the result on the
// returned channel, which receives exactly one value.
func (s *Service) SaveAsync(ctx context.Context, key string, value any) <-chan error {
	ch := make(chan error, 1)
	common.SafeGo(ch, func() error {
		return s.Save(ctx, key, value)
	})
	return ch
}

func (s *Service) save(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var payload, cipherText, raw string
	if err := guard("serialize", func() (err error) {
		payload, err = s.serializer.Marshal(value)
		return err
	}); err != nil {
		return err
	}
	if err := guard("encrypt", func() (err error) {
		cipherText, err = s.chain.Encrypt(payload)
		return err
	}); err != nil {
		return err
	}
	if err := guard("wrap", func() (err error) {
		raw, err = s.serializer.Marshal(Envelope{SchemaVersion: s.version, Payload: cipherText})
		return err
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return guard("store", func() error {
		return s.backend.Store(ctx, key, raw)
	})
}

// Load returns the value stored under key, or def when the key is missing or
// any pipeline step fails. Exactly one LoadSuccess or LoadFailed event is
// published per call.
func Load[T any](ctx context.Context, s *Service, key string, def T) T {
	v, err := TryLoad[T](ctx, s, key)
	if err != nil {
		return def
	}
	return v
}

// TryLoad is the strict variant of Load: the failure cause is returned
// instead of being replaced by a default.
func TryLoad[T any](ctx context.Context, s *Service, key string) (T, error) {
	var out T
	if err := s.loadInto(ctx, key, &out, reflect.TypeOf((*T)(nil)).Elem().String()); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// LoadInto decodes the value stored under key into out, which must be a
// non-nil pointer. On failure out may be partially written.
func (s *Service) LoadInto(ctx context.Context, key string, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		err := fmt.Errorf("%w: LoadInto requires a non-nil pointer, got %T", ErrDecode, out)
		s.publish(event.New(event.LoadFailed, key, typeNameOf(out)).WithError(err))
		return err
	}
	return s.loadInto(ctx, key, out, rv.Elem().Type().String())
}

func (s *Service) loadInto(ctx context.Context, key string, out any, typeName string) error {
	if err := s.load(ctx, key, out, typeName); err != nil {
		s.logger.Debug("Load failed", zap.String("key", key), zap.String("type", typeName), zap.Error(err))
		s.publish(event.New(event.LoadFailed, key, typeName).WithError(err))
		return err
	}
	s.logger.Debug("Loaded", zap.String("key", key), zap.String("type", typeName))
	s.publish(event.New(event.LoadSuccess, key, typeName))
	return nil
}

func (s *Service) load(ctx context.Context, key string, out any, typeName string) error {
	if key == "" {
		return ErrInvalidKey
	}

	var (
		raw   string
		found bool
	)
	if err := guard("load", func() (err error) {
		raw, found, err = s.backend.Load(ctx, key)
		return err
	}); err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	var env Envelope
	if err := guard("unwrap", func() error {
		return s.serializer.Unmarshal(raw, &env)
	}); err != nil {
		return err
	}
	if env.SchemaVersion < 0 {
		return fmt.Errorf("%w: negative schema version %d", ErrDecode, env.SchemaVersion)
	}
	if env.SchemaVersion > s.version {
		return fmt.Errorf("%w: %w: stored %d, supported %d", ErrDecode, ErrFutureVersion, env.SchemaVersion, s.version)
	}

	var res migration.Result
	if err := guard("migrate", func() (err error) {
		res, err = s.migrations.Migrate(env.Payload, env.SchemaVersion, s.version)
		return err
	}); err != nil {
		return err
	}
	for _, gap := range res.Gaps {
		s.logger.Warn("No migrator registered for schema hop, payload passed through unchanged",
			zap.String("key", key),
			zap.Int("from_version", gap.From),
			zap.Int("to_version", gap.To))
		e := event.New(event.MigrationGap, key, typeName)
		e.FromVersion, e.ToVersion = gap.From, gap.To
		s.publish(e)
	}

	var plain string
	if err := guard("decrypt", func() (err error) {
		plain, err = s.chain.Decrypt(res.Payload)
		return err
	}); err != nil {
		return err
	}
	return guard("deserialize", func() error {
		return s.serializer.Unmarshal(plain, out)
	})
}

// Exists reports whether key holds a value. Backend failures are logged
// and reported as false.
func (s *Service) Exists(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	var ok bool
	err := guard("exists", func() (err error) {
		ok, err = s.backend.Exists(ctx, key)
		return err
	})
	if err != nil {
		s.logger.Warn("Exists check failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Service) Delete(ctx context.Context, key string) error {
	err := func() error {
		if key == "" {
			return ErrInvalidKey
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return guard("delete", func() error {
			return s.backend.Delete(ctx, key)
		})
	}()
	if err != nil {
		s.logger.Debug("Delete failed", zap.String("key", key), zap.Error(err))
		s.publish(event.New(event.DeleteFailed, key, "").WithError(err))
		return err
	}
	s.publish(event.New(event.DeleteSuccess, key, ""))
	return nil
}

// List returns the stored keys starting with prefix
func (s *Service) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := guard("list", func() (err error) {
		keys, err = s.backend.List(ctx, prefix)
		return err
	})
	return keys, err
}

// Close closes the backend
func (s *Service) Close() error {
	return s.backend.Close()
}

func (s *Service) publish(e event.Event) {
	if s.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Event observer panicked", zap.String("kind", string(e.Kind)), zap.Any("panic", r))
		}
	}()
	s.publisher.Publish(e)
}

func typeNameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
