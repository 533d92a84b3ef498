package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the single configuration value object for the process.
// It is loaded once in main and passed into constructors by value;
// nothing reads configuration ambiently after startup.
type Config struct {
	ServiceName   string        `mapstructure:"SERVICE_NAME"`
	Env           string        `mapstructure:"ENV"`
	HTTPAddr      string        `mapstructure:"HTTP_ADDR"`
	ClientTimeout time.Duration `mapstructure:"CLIENT_TIMEOUT"`

	// Collaborator services, reached over plain HTTP with a shared secret.
	// The secret has no default: the internal guard rejects everything when
	// it is empty, so startup fails instead of booting a service whose
	// confirm-payment route can never be reached.
	ProductServiceURL string `mapstructure:"PRODUCT_SERVICE_URL"`
	UserServiceURL    string `mapstructure:"USER_SERVICE_URL"`
	InternalSecret    string `mapstructure:"INTERNAL_SECRET_KEY"`

	// Storage drivers. The in-memory adapters are the default so the
	// service runs without external infrastructure.
	OrderStore  string `mapstructure:"ORDER_STORE"` // memory | postgres
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	CartStore   string `mapstructure:"CART_STORE"` // memory | redis
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
}

// Load reads configuration from the environment and, when present, an
// app.yaml in the given path. Environment variables win.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("SERVICE_NAME", "minishop-fulfillment")
	v.SetDefault("ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CLIENT_TIMEOUT", 5*time.Second)
	v.SetDefault("PRODUCT_SERVICE_URL", "http://localhost:8001")
	v.SetDefault("USER_SERVICE_URL", "http://localhost:8003")
	v.SetDefault("INTERNAL_SECRET_KEY", "")
	v.SetDefault("ORDER_STORE", "memory")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("CART_STORE", "memory")
	v.SetDefault("REDIS_ADDR", "")

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.InternalSecret == "" {
		return fmt.Errorf("config: INTERNAL_SECRET_KEY is required")
	}

	switch c.OrderStore {
	case "memory":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("config: POSTGRES_URL is required when ORDER_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown ORDER_STORE %q", c.OrderStore)
	}

	switch c.CartStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required when CART_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown CART_STORE %q", c.CartStore)
	}

	return nil
}
