package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	minSecretLen = 32
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Admin   AdminConfig
	Log     LogConfig
	Metrics MetricsConfig
	Display DisplayConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only when a reverse proxy that overwrites those headers sits in front.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
}

type StorageConfig struct {
	Driver        string        `envconfig:"STORAGE_DRIVER" default:"bolt"`
	BoltPath      string        `envconfig:"BOLT_PATH" default:"pos.db"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CatalogKey    string        `envconfig:"CATALOG_KEY" default:"pos_products_v1"`
	Timeout       time.Duration `envconfig:"STORAGE_TIMEOUT" default:"3s"`
}

type AdminConfig struct {
	PIN        string        `envconfig:"ADMIN_PIN" default:"1234"`
	JWTSecret  string        `envconfig:"JWT_SECRET" default:"minipos-dev-secret"`
	TokenTTL   time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"15m"`
	LoginLimit int           `envconfig:"ADMIN_LOGIN_LIMIT" default:"5"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Token   string `envconfig:"METRICS_TOKEN"`
}

type DisplayConfig struct {
	TimeZone string `envconfig:"DISPLAY_TIMEZONE" default:"Europe/Vienna"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverBolt, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return errors.Newf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Admin.PIN) == "" {
		return errors.New("ADMIN_PIN must not be empty")
	}
	if c.Admin.TokenTTL <= 0 {
		return errors.New("ADMIN_TOKEN_TTL must be positive")
	}
	if c.Storage.Timeout <= 0 {
		return errors.New("STORAGE_TIMEOUT must be positive")
	}
	return nil
}

// WeakSecret reports whether the admin JWT secret is too short to be trusted.
func (c Config) WeakSecret() bool {
	return len(c.Admin.JWTSecret) < minSecretLen
}

// Location falls back to UTC when the zone database lacks the configured zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8889"},
		Storage: StorageConfig{
			Driver:     DriverMemory,
			CatalogKey: "pos_products_v1",
			Timeout:    time.Second,
		},
		Admin: AdminConfig{
			PIN:        "4321",
			JWTSecret:  "test-secret-test-secret-test-secret",
			TokenTTL:   time.Minute,
			LoginLimit: 5,
		},
		Log:     LogConfig{Level: "error"},
		Metrics: MetricsConfig{Enabled: true},
		Display: DisplayConfig{TimeZone: "UTC"},
	}
}
