// redis — session.Store поверх Redis: один ключ с закодированным токеном и TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pribylovaa/articles-cms/internal/session"
)

// DefaultPrefix — префикс ключей, если не задан в конфиге.
const DefaultPrefix = "cms:session:"

// Store — адаптер Redis для session.Store.
type Store struct {
	rdb *goredis.Client
	key string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет доступность (fail-fast на старте).
func New(ctx context.Context, redisURL, prefix string) (*Store, error) {
	const op = "session/redis/New"

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return NewFromClient(rdb, prefix), nil
}

// NewFromClient — Store поверх уже созданного клиента.
func NewFromClient(rdb *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Store{rdb: rdb, key: prefix + session.CookieName}
}

func (s *Store) Load(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", session.ErrNoToken
		}
		return "", fmt.Errorf("session/redis/Load: %w", err)
	}

	if v == "" {
		return "", session.ErrNoToken
	}

	return v, nil
}

func (s *Store) Save(ctx context.Context, encoded string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("session/redis/Save: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session/redis/Clear: %w", err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Store) Close() error {
	return s.rdb.Close()
}
