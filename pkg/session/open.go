package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Backends lists every supported backend.
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendPostgres}

// Config selects and configures a store backend.
type Config struct {
	Backend string `toml:"backend"`

	Dir string `toml:"dir"` // file

	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`

	PostgresDSN string `toml:"postgres_dsn"`
}

// Open connects to the configured backend. Network backends are pinged
// with retries before Open returns. Every operation of the returned store
// reports to observability.Store().
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}
	s, err := open(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}
	return &instrumented{Store: s, backend: backend}, nil
}

func open(ctx context.Context, backend string, cfg Config) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendFile:
		return NewFileStore(cfg.Dir)

	case BackendRedis:
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", addr, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), nil

	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mongo backend requires mongo_uri")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := cfg.MongoDatabase
		if db == "" {
			db = "dialoguegraph"
		}
		return NewMongoStore(client, db), nil

	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "postgres backend requires postgres_dsn")
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := ping(ctx, pool.Ping); err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgresStore(pool)
		if err := store.CreateSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q (want one of %v)", backend, Backends)
}

// ping retries fn with a short per-attempt timeout.
func ping(ctx context.Context, fn func(context.Context) error) error {
	return RetryWithBackoff(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return Retryable(fn(attemptCtx))
	})
}

// =============================================================================
// Instrumentation
// =============================================================================

// instrumented reports every operation of the wrapped store.
type instrumented struct {
	Store
	backend string
}

func (s *instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, id string) (*Session, error) {
	start := time.Now()
	sess, err := s.Store.Get(ctx, id)
	s.report(ctx, "get", start, err)
	return sess, err
}

func (s *instrumented) Put(ctx context.Context, sess *Session) error {
	start := time.Now()
	err := s.Store.Put(ctx, sess)
	s.report(ctx, "put", start, err)
	return err
}

func (s *instrumented) List(ctx context.Context) ([]Summary, error) {
	start := time.Now()
	out, err := s.Store.List(ctx)
	s.report(ctx, "list", start, err)
	return out, err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, id)
	s.report(ctx, "delete", start, err)
	return err
}
