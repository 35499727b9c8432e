package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/liquidation-ledger/internal/config"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

const (
	metricsKeyPrefix   = "liquidation:metrics"
	overallMetricsKey  = metricsKeyPrefix + ":overall"
	aggregateKeyPrefix = metricsKeyPrefix + ":distributor:"
	scanBatchSize      = 100
	defaultMetricsTTL  = time.Minute
)

// generationKey lives outside the metrics prefix so InvalidateAll never
// deletes it.
const generationKey = "liquidation:cache-generation:metrics"

// MetricsCache holds read models derived from the ledger. Every ledger
// mutation invalidates it and bumps its generation.
//
// A reader takes the Generation before loading from the ledger and passes it
// to the setter; the setter stores nothing when an invalidation happened in
// between, so a read that raced a write cannot repopulate stale totals.
type MetricsCache interface {
	Generation(ctx context.Context) (int64, error)
	GetOverall(ctx context.Context) (*domain.OverallMetrics, bool, error)
	SetOverall(ctx context.Context, metrics *domain.OverallMetrics, generation int64) error
	GetAggregate(ctx context.Context, distributorID string) (*domain.DistributorAggregate, bool, error)
	SetAggregate(ctx context.Context, aggregate *domain.DistributorAggregate, generation int64) error
	InvalidateAll(ctx context.Context) error
}

var errStaleGeneration = errors.New("cache generation moved")

type redisMetricsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type noopMetricsCache struct{}

// NewMetricsCache connects to redis when caching is enabled and returns a
// no-op cache otherwise.
func NewMetricsCache(cfg config.CacheConfig) (MetricsCache, error) {
	if !cfg.Enabled {
		return &noopMetricsCache{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisMetricsCache(client, cfg.TTL), nil
}

// NewRedisClient opens and pings a client from cfg regardless of cfg.Enabled.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisMetricsCache wraps an existing client.
func NewRedisMetricsCache(client redis.UniversalClient, ttl time.Duration) MetricsCache {
	if ttl <= 0 {
		ttl = defaultMetricsTTL
	}
	return &redisMetricsCache{client: client, ttl: ttl}
}

func NewNoopMetricsCache() MetricsCache {
	return &noopMetricsCache{}
}

func (c *redisMetricsCache) Generation(ctx context.Context) (int64, error) {
	return parseGeneration(c.client.Get(ctx, generationKey))
}

func parseGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (c *redisMetricsCache) GetOverall(ctx context.Context) (*domain.OverallMetrics, bool, error) {
	var m domain.OverallMetrics
	ok, err := c.get(ctx, overallMetricsKey, &m)
	if !ok || err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (c *redisMetricsCache) SetOverall(ctx context.Context, metrics *domain.OverallMetrics, generation int64) error {
	return c.set(ctx, overallMetricsKey, metrics, generation)
}

func (c *redisMetricsCache) GetAggregate(ctx context.Context, distributorID string) (*domain.DistributorAggregate, bool, error) {
	var agg domain.DistributorAggregate
	ok, err := c.get(ctx, aggregateKeyPrefix+distributorID, &agg)
	if !ok || err != nil {
		return nil, false, err
	}
	return &agg, true, nil
}

func (c *redisMetricsCache) SetAggregate(ctx context.Context, aggregate *domain.DistributorAggregate, generation int64) error {
	return c.set(ctx, aggregateKeyPrefix+aggregate.DistributorID, aggregate, generation)
}

// InvalidateAll bumps the generation before deleting, so readers that loaded
// before this call cannot write their results back afterwards.
func (c *redisMetricsCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("redis incr generation failed: %w", err)
	}

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, metricsKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (c *redisMetricsCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// set writes value only while the generation still equals gen. A moved
// generation or a concurrent change of the generation key drops the write.
func (c *redisMetricsCache) set(ctx context.Context, key string, value interface{}, gen int64) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseGeneration(tx.Get(ctx, generationKey))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

func (n *noopMetricsCache) Generation(ctx context.Context) (int64, error) {
	return 0, nil
}

func (n *noopMetricsCache) GetOverall(ctx context.Context) (*domain.OverallMetrics, bool, error) {
	return nil, false, nil
}

func (n *noopMetricsCache) SetOverall(ctx context.Context, metrics *domain.OverallMetrics, generation int64) error {
	return nil
}

func (n *noopMetricsCache) GetAggregate(ctx context.Context, distributorID string) (*domain.DistributorAggregate, bool, error) {
	return nil, false, nil
}

func (n *noopMetricsCache) SetAggregate(ctx context.Context, aggregate *domain.DistributorAggregate, generation int64) error {
	return nil
}

func (n *noopMetricsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
