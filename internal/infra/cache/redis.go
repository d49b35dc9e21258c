package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groupbuy/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "qr_token:"

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// TokenCache remembers which reservation a QR token resolved to.
type TokenCache struct {
	client redis.UniversalClient
}

func NewTokenCache(client redis.UniversalClient) *TokenCache {
	return &TokenCache{client: client}
}

func (c *TokenCache) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to get qr token from redis: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt qr token entry: %w", err)
	}
	return id, true, nil
}

func (c *TokenCache) Set(ctx context.Context, token string, reservationID uuid.UUID, ttl time.Duration) error {
	if err := c.client.Set(ctx, tokenKeyPrefix+token, reservationID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set qr token in redis: %w", err)
	}
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete qr token from redis: %w", err)
	}
	return nil
}
