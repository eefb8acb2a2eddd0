package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/envutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type EntityCacheConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// LoadEntityCacheConfig reads REDIS_* settings. An empty Addr disables the cache.
func LoadEntityCacheConfig() EntityCacheConfig {
	return EntityCacheConfig{
		Addr:      strings.TrimSpace(envutil.String("REDIS_ADDR", "")),
		Password:  envutil.String("REDIS_PASSWORD", ""),
		DB:        envutil.Int("REDIS_DB", 0),
		KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "storefront"),
		TTL:       envutil.Duration("CACHE_TTL", 30*time.Second),
	}
}

// EntityCache keeps eager single-entity reads as JSON under <prefix>:<entity>:<id>.
// Transport failures are logged and reported as misses.
type EntityCache struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	prefix  string
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewEntityCache dials cfg.Addr and fails when the first ping does.
func NewEntityCache(log *logger.Logger, cfg EntityCacheConfig) (*EntityCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewEntityCacheFromClient(log, rdb, cfg), nil
}

func NewEntityCacheFromClient(log *logger.Logger, rdb goredis.UniversalClient, cfg EntityCacheConfig) *EntityCache {
	if log == nil {
		log = logger.NewNop()
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "storefront"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EntityCache{
		log:     log.With("service", "RedisEntityCache"),
		rdb:     rdb,
		prefix:  prefix,
		ttl:     ttl,
		metrics: observability.Current(),
	}
}

func (c *EntityCache) key(entity string, id uuid.UUID) string {
	return c.prefix + ":" + entity + ":" + id.String()
}

func (c *EntityCache) stampKey(entity string, id uuid.UUID) string {
	return c.key(entity, id) + ":gen"
}

// Stamps outlive entries so a reader never compares against an expired one.
func (c *EntityCache) stampTTL() time.Duration {
	return 2*c.ttl + time.Minute
}

// setIfStamp writes the entry only while the stamp key still holds ARGV[1].
var setIfStamp = goredis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *EntityCache) Get(ctx context.Context, entity string, id uuid.UUID, dst any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, c.key(entity, id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("entity cache get failed", "entity", entity, "error", err)
		}
		c.metrics.ObserveCacheLookup(entity, false)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("bad entity cache payload", "entity", entity, "error", err)
		c.metrics.ObserveCacheLookup(entity, false)
		return false
	}
	c.metrics.ObserveCacheLookup(entity, true)
	return true
}

// Stamp returns the entry's invalidation generation, or -1 when it cannot be read.
func (c *EntityCache) Stamp(ctx context.Context, entity string, id uuid.UUID) int64 {
	if c == nil || c.rdb == nil {
		return -1
	}
	n, err := c.rdb.Get(ctx, c.stampKey(entity, id)).Int64()
	switch {
	case err == nil:
		return n
	case errors.Is(err, goredis.Nil):
		return 0
	default:
		c.log.Warn("entity cache stamp failed", "entity", entity, "error", err)
		return -1
	}
}

// Set stores v unless the entry was invalidated after stamp was taken.
func (c *EntityCache) Set(ctx context.Context, entity string, id uuid.UUID, v any, stamp int64) {
	if c == nil || c.rdb == nil || stamp < 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("entity cache encode failed", "entity", entity, "error", err)
		return
	}
	keys := []string{c.key(entity, id), c.stampKey(entity, id)}
	stored, err := setIfStamp.Run(ctx, c.rdb, keys, strconv.FormatInt(stamp, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn("entity cache set failed", "entity", entity, "error", err)
		return
	}
	if stored == 0 {
		c.log.Debug("entity cache set skipped after invalidation", "entity", entity, "id", id)
	}
}

// Delete advances each entry's stamp before dropping it.
func (c *EntityCache) Delete(ctx context.Context, entity string, ids ...uuid.UUID) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range ids {
			sk := c.stampKey(entity, id)
			pipe.Incr(ctx, sk)
			pipe.PExpire(ctx, sk, c.stampTTL())
			keys = append(keys, c.key(entity, id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Warn("entity cache delete failed", "entity", entity, "keys", len(keys), "error", err)
	}
}

// Client exposes the underlying connection for health checks and metrics.
func (c *EntityCache) Client() goredis.UniversalClient {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *EntityCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
