// File: store_redis.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(ctx context.Context, cfg StoreConfig) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return &redisStore{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Put(ctx context.Context, id, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(id), answer, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Take uses GETDEL so two concurrent verifications cannot both read the answer.
func (s *redisStore) Take(ctx context.Context, id string) (string, bool, error) {
	answer, err := s.client.GetDel(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel: %w", err)
	}
	return answer, true, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
