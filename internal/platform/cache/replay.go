package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/pkg/config"
)

const (
	replayKeyPrefix  = "memberlink:webhook:"
	defaultReplayTTL = 72 * time.Hour
)

// ReplayGuard remembers webhook deliveries that were already handled so a
// redelivered message can be acknowledged without re-ingesting it.
type ReplayGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type redisReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReplayGuard(client *redis.Client, ttl time.Duration) ReplayGuard {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &redisReplayGuard{client: client, ttl: ttl}
}

func (g *redisReplayGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	n, err := g.client.Exists(ctx, replayKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("replay guard lookup: %w", err)
	}
	return n > 0, nil
}

func (g *redisReplayGuard) Mark(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if err := g.client.Set(ctx, replayKeyPrefix+eventID, time.Now().Unix(), g.ttl).Err(); err != nil {
		return fmt.Errorf("replay guard mark: %w", err)
	}
	return nil
}

// noopReplayGuard is used when no redis address is configured. Duplicates
// are still harmless because ingest is idempotent.
type noopReplayGuard struct{}

func (noopReplayGuard) Seen(context.Context, string) (bool, error) { return false, nil }
func (noopReplayGuard) Mark(context.Context, string) error         { return nil }

func NewNoopReplayGuard() ReplayGuard { return noopReplayGuard{} }

// NewReplayGuard connects to redis when configured. An unreachable redis at
// startup is logged and the guard still works once redis comes up.
func NewReplayGuard(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) ReplayGuard {
	if cfg.Redis.Addr == "" {
		log.Infow("replay_guard_disabled")
		return NewNoopReplayGuard()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warnw("replay_guard_redis_unreachable", "addr", cfg.Redis.Addr, "err", err)
				return nil
			}
			log.Infow("replay_guard_ready", "addr", cfg.Redis.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				return err
			}
			return nil
		},
	})
	return NewRedisReplayGuard(client, cfg.Redis.ReplayTTL)
}

var Module = fx.Options(
	fx.Provide(NewReplayGuard),
)
