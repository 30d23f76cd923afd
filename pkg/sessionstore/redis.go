package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "vendor-portal:session:"

// RedisOptions configures the redis connection.
type RedisOptions struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	Prefix       string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStore keeps sessions in redis so several portal processes share them.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedis wraps an existing redis client.
func NewRedis(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// DialRedis connects to redis and verifies the connection with PING.
func DialRedis(ctx context.Context, opts RedisOptions) (*RedisStore, func() error, error) {
	if opts.Addr == "" {
		return nil, nil, errors.New("sessionstore: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("sessionstore: ping %s: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.Prefix), client.Close, nil
}

var _ portal.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save stores session with an expiration matching its ExpiresAt.
func (s *RedisStore) Save(ctx context.Context, session portal.Session) error {
	ttl := remaining(session.ExpiresAt, s.now())
	if ttl == 0 {
		return s.client.Del(ctx, s.key(session.ID)).Err()
	}
	raw, err := encode(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(session.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore: save %s: %w", session.ID, err)
	}
	return nil
}

// Load returns the session stored under id.
func (s *RedisStore) Load(ctx context.Context, id string) (portal.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return portal.Session{}, portal.ErrSessionNotFound
		}
		return portal.Session{}, fmt.Errorf("sessionstore: load %s: %w", id, err)
	}
	return decode(id, raw)
}

// Delete removes the session stored under id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("sessionstore: delete %s: %w", id, err)
	}
	if n == 0 {
		return portal.ErrSessionNotFound
	}
	return nil
}
