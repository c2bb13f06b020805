package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	KindMemory = "memory"
	KindCookie = "cookie"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Options selects and parameterises a Store backing.
type Options struct {
	Kind string

	// cookie
	Jar     http.CookieJar
	BaseURL string

	// file, sqlite
	Path       string
	Passphrase []byte

	// redis
	RedisAddr string
	RedisKey  string
	RedisTTL  time.Duration
}

// Open builds the Store described by opts. Stores that hold resources
// (sqlite, redis) also implement io.Closer.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindMemory:
		return NewMemoryStore(""), nil
	case KindCookie:
		return NewCookieStore(opts.Jar, opts.BaseURL)
	case KindFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file credential store: empty path")
		}
		return NewFileStore(opts.Path, opts.Passphrase), nil
	case KindSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite credential store: empty path")
		}
		return OpenSQLite(ctx, opts.Path)
	case KindRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis credential store: %w", err)
		}
		return &closingRedisStore{RedisStore: NewRedisStore(rdb, opts.RedisKey, opts.RedisTTL), client: rdb}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}

type closingRedisStore struct {
	*RedisStore
	client *redis.Client
}

func (s *closingRedisStore) Close() error {
	return s.client.Close()
}
