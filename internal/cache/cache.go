// cache — опциональный Redis-кэш отозванных refresh-токенов.
//
// Кэш ускоряет только положительные ответы ("jti отозван"): отсутствие
// ключа означает "неизвестно", и проверка уходит в БД. Источник истины —
// всегда леджер в PostgreSQL.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevocationCache — минимальный контракт кэша отозванных токенов.
type RevocationCache interface {
	// IsRevoked возвращает (true, nil), если jti помечен отозванным в кэше.
	// false означает "в кэше нет данных", а не "не отозван".
	IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error)
	// MarkRevoked помечает jti отозванным с TTL (обычно до естественного
	// истечения токена — дольше хранить смысла нет).
	MarkRevoked(ctx context.Context, jti uuid.UUID, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:bl:".
func NewRedisCache(redisURL, prefix string) (RevocationCache, error) {
	if prefix == "" {
		prefix = "auth:bl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(jti uuid.UUID) string { return c.prefix + jti.String() }

func (c *redisCache) IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(jti)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *redisCache) MarkRevoked(ctx context.Context, jti uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}

	return c.rdb.Set(ctx, c.key(jti), "1", ttl).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
