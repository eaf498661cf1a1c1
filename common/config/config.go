package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Log    LogConfig
	Redis  RedisConfig
	NATS   NATSConfig
	Cache  CacheConfig
	Ingest IngestConfig
}

type ServerConfig struct {
	HTTPAddr    string
	GRPCPort    int
	Environment string
	NoCORS      bool
}

type LogConfig struct {
	Level  string
	Format string
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	Channel      string
}

type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration
	Stream        string
	Subject       string
}

type CacheConfig struct {
	Capacity int
	TTL      time.Duration
}

type IngestConfig struct {
	// Source selects the upstream feed: "redis" or "nats".
	Source string
	// Backoff is the first retry delay; it doubles up to MaxBackoff while
	// the upstream keeps failing.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

const (
	SourceRedis = "redis"
	SourceNATS  = "nats"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.httpaddr", "127.0.0.1:3000")
	v.SetDefault("server.grpcport", 3001)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.nocors", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dialtimeout", 5*time.Second)
	v.SetDefault("redis.readtimeout", 0)
	v.SetDefault("redis.writetimeout", 3*time.Second)
	v.SetDefault("redis.poolsize", 4)
	v.SetDefault("redis.channel", "http-out")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.maxreconnect", -1)
	v.SetDefault("nats.reconnectwait", 2*time.Second)
	v.SetDefault("nats.timeout", 5*time.Second)
	v.SetDefault("nats.stream", "ARENA_FULL")
	v.SetDefault("nats.subject", "arena.full.*")

	// lots of ongoing tournaments (user made)
	v.SetDefault("cache.capacity", 1024)
	v.SetDefault("cache.ttl", 4*time.Second)

	v.SetDefault("ingest.source", SourceRedis)
	v.SetDefault("ingest.backoff", time.Second)
	v.SetDefault("ingest.maxbackoff", 30*time.Second)
}

// Load reads config.yaml from ./config, . or configPath, then applies
// ARENA_* environment overrides (ARENA_CACHE_TTL=10s). A missing file is
// not an error; every key has a default.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Ingest.Source {
	case SourceRedis, SourceNATS:
	default:
		return errors.New("ingest.source must be redis or nats")
	}
	if c.Cache.Capacity <= 0 {
		return errors.New("cache.capacity must be positive")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Ingest.Backoff <= 0 {
		return errors.New("ingest.backoff must be positive")
	}
	if c.Ingest.MaxBackoff < c.Ingest.Backoff {
		return errors.New("ingest.maxbackoff must not be below ingest.backoff")
	}
	return nil
}
