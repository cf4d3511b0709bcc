package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/config"
	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/go-redis/redis/v8"
)

const (
	stationKeyPrefix = "sensordesk:station:"

	// stationGenKey holds the current cache generation. Purging bumps it, so
	// a name read before a bulk mutation is written under a dead key.
	stationGenKey = "sensordesk:station-gen"
)

func stationKey(gen int64, id string) string {
	return fmt.Sprintf("%s%d:%s", stationKeyPrefix, gen, id)
}

// NewRedisClient connects to the configured Redis and verifies it with PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Cached wraps a data service with a Redis cache of base station names.
// Bulk mutations purge the cache after they succeed. Redis failures are
// logged and fall through to the wrapped service.
type Cached struct {
	core.DataService
	rdb *redis.Client
	ttl time.Duration
}

// NewCached wraps svc. ttl <= 0 uses ten minutes.
func NewCached(svc core.DataService, rdb *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{DataService: svc, rdb: rdb, ttl: ttl}
}

// BaseStationName serves from the cache, filling it on a miss.
// Empty names (unknown stations) are not cached.
func (c *Cached) BaseStationName(ctx context.Context, baseStationID string) (string, error) {
	logger := logging.FromContext(ctx)

	gen, err := c.generation(ctx)
	if err != nil {
		logger.Warn("station cache read failed", "base_station_id", baseStationID, "error", err)
		return c.DataService.BaseStationName(ctx, baseStationID)
	}
	key := stationKey(gen, baseStationID)

	name, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return name, nil
	case !errors.Is(err, redis.Nil):
		logger.Warn("station cache read failed", "base_station_id", baseStationID, "error", err)
	}

	name, err = c.DataService.BaseStationName(ctx, baseStationID)
	if err != nil || name == "" {
		return name, err
	}
	if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
		logger.Warn("station cache write failed", "base_station_id", baseStationID, "error", err)
	}
	return name, nil
}

func (c *Cached) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, stationGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Cached) ImportFile(ctx context.Context, file core.UploadedFile) error {
	if err := c.DataService.ImportFile(ctx, file); err != nil {
		return err
	}
	c.purge(ctx)
	return nil
}

func (c *Cached) GenerateSampleData(ctx context.Context) error {
	if err := c.DataService.GenerateSampleData(ctx); err != nil {
		return err
	}
	c.purge(ctx)
	return nil
}

func (c *Cached) DeleteAllData(ctx context.Context) error {
	if err := c.DataService.DeleteAllData(ctx); err != nil {
		return err
	}
	c.purge(ctx)
	return nil
}

// purge starts a new cache generation and deletes the keys of the old one.
func (c *Cached) purge(ctx context.Context) {
	logger := logging.FromContext(ctx)

	gen, err := c.rdb.Incr(ctx, stationGenKey).Result()
	if err != nil {
		logger.Warn("station cache purge failed", "error", err)
		return
	}

	var cursor uint64
	deleted := 0
	pattern := fmt.Sprintf("%s%d:*", stationKeyPrefix, gen-1)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			logger.Warn("station cache cleanup failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("station cache cleanup failed", "error", err)
				return
			}
			deleted += len(keys)
		}
		if cursor = next; cursor == 0 {
			break
		}
	}
	logger.Debug("station cache purged", "generation", gen, "keys", deleted)
}
