package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/scenebox/pkg/errors"
	"github.com/matzehuels/scenebox/pkg/pipeline"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the optional user configuration read from config.toml.
//
//	format = "png"
//	scale = 2.0
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "12h"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Format string       `toml:"format"`
	Scale  float64      `toml:"scale"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects where pipeline results are cached.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Format: pipeline.FormatPNG,
		Scale:  pipeline.DefaultScale,
		Cache:  CacheConfig{Backend: BackendFile},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads path over the defaults. An empty path means the XDG
// location, which may be missing; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, keys[0].String())
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("config: cache backend %q needs redis_url", BackendRedis)
		}
		if err := errs.ValidateURL(c.Cache.RedisURL, "redis", "rediss", "unix"); err != nil {
			return fmt.Errorf("config: redis_url: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if err := pipeline.ValidateFormat(pipeline.NormalizeFormat(c.Format)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Scale <= 0 || c.Scale > pipeline.MaxScale {
		return fmt.Errorf("config: scale must be in (0, %g], got %g", pipeline.MaxScale, c.Scale)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: negative cache ttl %s", c.Cache.TTL)
	}
	return nil
}
