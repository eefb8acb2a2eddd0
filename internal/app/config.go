package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/storefront-backend/internal/clients/redis"
	"github.com/yungbote/storefront-backend/internal/data/db"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	httpH "github.com/yungbote/storefront-backend/internal/http/handlers"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/envutil"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port    string
	LogMode string

	DBDriver  string
	SQLiteDSN string
	Postgres  db.PostgresConfig

	DeletePolicy domainagg.DeletePolicy

	Cache          redis.EntityCacheConfig
	Otel           observability.OtelConfig
	MetricsEnabled bool

	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Paging          httpH.PageConfig
}

// LoadConfig reads the process environment. When CONFIG_FILE names a YAML
// file of KEY: value pairs, those pairs fill in any variable the environment
// leaves unset.
func LoadConfig() (Config, error) {
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := applyConfigFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Port:      envutil.String("PORT", "8080"),
		LogMode:   envutil.String("LOG_MODE", "development"),
		DBDriver:  strings.ToLower(envutil.String("DB_DRIVER", DriverSQLite)),
		SQLiteDSN: envutil.String("SQLITE_DSN", "file:storefront.db?cache=shared"),
		Postgres:  db.LoadPostgresConfig(),

		DeletePolicy: domainagg.DeleteDenyReferenced,

		Cache:          redis.LoadEntityCacheConfig(),
		Otel:           observability.LoadOtelConfig(),
		MetricsEnabled: observability.Enabled(),

		CORSOrigins:     envutil.List("CORS_ORIGINS", nil),
		RateLimitRPS:    envutil.Float("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  envutil.Int("RATE_LIMIT_BURST", 0),
		RequestTimeout:  envutil.Duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Paging: httpH.PageConfig{
			DefaultSize: envutil.Int("PAGE_SIZE_DEFAULT", 20),
			MaxSize:     envutil.Int("PAGE_SIZE_MAX", 200),
		},
	}
	if envutil.Bool("CASCADE_DELETE", false) {
		cfg.DeletePolicy = domainagg.DeleteCascade
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = int(cfg.RateLimitRPS)
		if cfg.RateLimitBurst < 1 {
			cfg.RateLimitBurst = 1
		}
	}
	if cfg.Paging.MaxSize <= 0 {
		cfg.Paging.MaxSize = 200
	}
	if cfg.Paging.DefaultSize <= 0 || cfg.Paging.DefaultSize > cfg.Paging.MaxSize {
		return Config{}, fmt.Errorf("PAGE_SIZE_DEFAULT must be between 1 and PAGE_SIZE_MAX (%d)", cfg.Paging.MaxSize)
	}
	return cfg, nil
}

func applyConfigFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	for key, v := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" || v == nil || envutil.Present(key) {
			continue
		}
		var s string
		switch t := v.(type) {
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			s = strings.Join(parts, ",")
		default:
			s = fmt.Sprint(t)
		}
		if err := os.Setenv(key, s); err != nil {
			return fmt.Errorf("apply config key %s: %w", key, err)
		}
	}
	return nil
}
