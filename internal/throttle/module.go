package throttle

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/config"
)

// Module provides the attempt throttle with its configured store
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig) Store {
					if cfg.Throttle.Store == "redis" {
						client := redis.NewClient(&redis.Options{
							Addr:     cfg.Redis.Addr,
							Password: cfg.Redis.Password,
							DB:       cfg.Redis.DB,
						})
						return NewRedisStore(client, "throttle")
					}
					return NewMemoryStore()
				},
			),
			fx.Annotate(
				func(cfg *config.AppConfig, store Store, log *zap.Logger) *Throttle {
					return New(&cfg.Throttle, store, log)
				},
			),
			fx.Annotate(
				func(t *Throttle) *Middleware {
					return NewMiddleware(t)
				},
			),
		),
	)
}
