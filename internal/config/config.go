package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"TaskAPI/internal/utils"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// durationSeconds is an env duration read by utils.ParseDurationEnv.
type durationSeconds time.Duration

// SetValue implements cleanenv.Setter.
func (d *durationSeconds) SetValue(data string) error {
	v, err := utils.ParseDurationEnv(data)
	if err != nil {
		return err
	}
	*d = durationSeconds(v)
	return nil
}

func (d durationSeconds) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	App   AppConfig
	HTTP  HTTPConfig
	Store StoreConfig
	Redis RedisConfig
	Log   LogConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" env-default:"dev"`
	Version string `env:"VERSION" env-default:"dev"`
}

type HTTPConfig struct {
	Port string `env:"HTTP_PORT,PORT" env-default:"8080"`

	// "10s", "5m" or whole seconds.
	ReadTimeout  durationSeconds `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout durationSeconds `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  durationSeconds `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`

	// Comma separated; "*" allows any origin.
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"*"`
}

// StoreConfig selects the task store by connection string scheme:
// postgres://, mongodb:// or sqlite://.
type StoreConfig struct {
	DSN string `env:"STORE_DSN,MONGO_URI,DATABASE_URL" env-required:"true"`
	// Database is the MongoDB database used when the URI names none.
	Database string `env:"STORE_DATABASE" env-default:"tasks"`
}

type RedisConfig struct {
	// Addr is "host:port". Empty Addr and URL disable the cache.
	Addr     string `env:"REDIS_ADDR" env-default:""`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	// URL overrides Addr/Password/DB; rediss:// enables TLS.
	URL string `env:"REDIS_URL" env-default:""`

	// "60s", "5m" or a number of seconds.
	DefaultTTL durationSeconds `env:"REDIS_DEFAULT_TTL" env-default:"60"`
}

// Enabled reports whether a Redis cache is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// IsProd reports whether the app runs in production mode.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod") || strings.EqualFold(c.App.Env, "production")
}

// LoadDotenv loads variables from the given .env files (default ".env").
// Missing files are not an error; variables already set are kept.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if strings.TrimSpace(cfg.Store.DSN) == "" {
		return Config{}, fmt.Errorf("STORE_DSN (or MONGO_URI, DATABASE_URL) is required")
	}
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_URL: %w", err)
		}
		cfg.Redis.Addr = opt.Addr
		cfg.Redis.Password = opt.Password
		cfg.Redis.DB = opt.DB
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.Log.Format)
	}
	return cfg, nil
}
