package bootstrap

import (
	"context"
	"log/slog"

	"groupbuy/internal/infra/cache"
	"groupbuy/internal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewRedis,
	),
)

// NewRedis returns a nil client when REDIS_ADDR is unset.
func NewRedis(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		slog.Info("redis disabled; qr token cache is off")
		return nil, nil
	}
	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
