// Package cache реализует хранилище ключ-значение поверх Redis.
//
// Используется в двух режимах: как кеш JSON-ответов с TTL и как счётчик
// фиксированных окон для лимитера запросов. Инкремент атомарен на стороне
// Redis — это единственная защита от гонок между параллельными запросами.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taroteka/tarot-miniapp/internal/config"
)

// Cache инкапсулирует клиент Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get пытается получить значение по ключу и распаковать его в result.
// Возвращает false без ошибки, если ключ отсутствует или истёк.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение в кеш с временем жизни.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return c.Db.Set(ctx, key, jsonData, expiration).Err()
}

// Invalidate удаляет значение из кеша по ключу.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.Db.Del(ctx, key).Err()
}

// InvalidateByPrefix удаляет все ключи с заданным префиксом.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) error {
	const op = "cache.InvalidateByPrefix"
	var cursor uint64
	for {
		keys, next, err := c.Db.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if len(keys) > 0 {
			if err := c.Db.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Increment атомарно увеличивает счётчик по ключу на by и возвращает новое
// значение. Если инкремент создал ключ, ему выставляется ttl — так первый
// запрос в окне задаёт время жизни всего окна.
func (c *Cache) Increment(ctx context.Context, key string, by int64, ttl time.Duration) (int64, error) {
	const op = "cache.Increment"
	newValue, err := c.Db.IncrBy(ctx, key, by).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if newValue == by && ttl > 0 {
		if err := c.Db.Expire(ctx, key, ttl).Err(); err != nil {
			return newValue, fmt.Errorf("%s: %w", op, err)
		}
	}
	return newValue, nil
}

// Decrement атомарно уменьшает счётчик по ключу на by.
// Используется лимитером в режимах "не считать успешные/неуспешные запросы".
func (c *Cache) Decrement(ctx context.Context, key string, by int64) (int64, error) {
	const op = "cache.Decrement"
	newValue, err := c.Db.DecrBy(ctx, key, by).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newValue, nil
}

// TTLRemaining возвращает оставшееся время жизни ключа.
// Для отсутствующего или бессрочного ключа возвращает -1.
func (c *Cache) TTLRemaining(ctx context.Context, key string) (time.Duration, error) {
	const op = "cache.TTLRemaining"
	d, err := c.Db.TTL(ctx, key).Result()
	if err != nil {
		return -1, fmt.Errorf("%s: %w", op, err)
	}
	if d < 0 {
		return -1, nil
	}
	return d, nil
}
