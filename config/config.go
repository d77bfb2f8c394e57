package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port    string `env:"PORT" envDefault:"5000"`
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		// Directory uploaded images are written to and served from
		UploadDir string `env:"UPLOAD_DIR" envDefault:"public/uploads"`

		CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Store struct {
		// One of mongo, sqlite or memory
		Backend       string `env:"STORE_BACKEND" envDefault:"mongo"`
		MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
		MongoDatabase string `env:"MONGO_DATABASE" envDefault:"realestate"`
		SQLitePath    string `env:"SQLITE_PATH" envDefault:"database/properties.db"`
	}

	Cache struct {
		// One of none, memory or redis
		Backend       string `env:"CACHE_BACKEND" envDefault:"none"`
		RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		RedisPassword string `env:"REDIS_PASSWORD"`
		RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

		PropertyTTL        time.Duration `env:"CACHE_PROPERTY_TTL" envDefault:"1h"`
		SearchTTL          time.Duration `env:"CACHE_SEARCH_TTL" envDefault:"30m"`
		SearchHistoryLimit int           `env:"SEARCH_HISTORY_LIMIT" envDefault:"100"`
	}

	Prediction struct {
		URL string `env:"PREDICTION_URL" envDefault:"http://127.0.0.1:5001"`

		// Number of concurrent predictions during a valuation pass
		Workers int `env:"PREDICTION_WORKERS" envDefault:"4"`

		// Requests per second to the model service, 0 disables throttling
		RateLimit float64 `env:"PREDICTION_RATE_LIMIT" envDefault:"0"`
	}

	Auth struct {
		JWTSecret string `env:"JWT_SECRET,required"`

		// Require create to carry a credential matching ownerId
		StrictCreateOwnership bool `env:"STRICT_CREATE_OWNERSHIP" envDefault:"false"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	switch c.Store.Backend {
	case "mongo", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Prediction.Workers <= 0 {
		return fmt.Errorf("PREDICTION_WORKERS must be positive, got %d", c.Prediction.Workers)
	}
	return nil
}
