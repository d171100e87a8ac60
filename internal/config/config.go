// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks configuration problems that must stop the process at startup.
var ErrConfig = errors.New("invalid configuration")

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token         string        `yaml:"token"`
	OperatorID    int64         `yaml:"operator_id"`
	Workers       int           `yaml:"workers"`        // polling workers
	Language      string        `yaml:"language"`       // en | fr
	HandleTimeout time.Duration `yaml:"handle_timeout"` // per update
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // file | postgres
	BlocklistFile string `yaml:"blocklist_file"`
	DatabaseURL   string `yaml:"database_url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RelayConfig struct {
	CorrelationTTL time.Duration `yaml:"correlation_ttl"` // 0 keeps entries forever
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Relay   RelayConfig   `yaml:"relay"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// LoadConfig reads the YAML file at path (a missing file is not an error), then
// .env, then environment overrides, applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only deployments
		default:
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
		}
	}

	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("TELEGRAM_TOKEN"); ok && v != "" {
		cfg.Bot.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup("OWNER_ID"); ok && v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: OWNER_ID must be an integer: %v", ErrConfig, err)
		}
		cfg.Bot.OperatorID = id
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: PORT must be an integer: %v", ErrConfig, err)
		}
		cfg.HTTP.Port = port
	}
	if v, ok := lookup("BLOCKED_USERS_FILE"); ok && v != "" {
		cfg.Storage.BlocklistFile = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		cfg.Redis.URL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}
	if cfg.Bot.HandleTimeout <= 0 {
		cfg.Bot.HandleTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFile
	}
	if cfg.Storage.BlocklistFile == "" {
		cfg.Storage.BlocklistFile = "blocked_users.json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Relay.CorrelationTTL < 0 {
		cfg.Relay.CorrelationTTL = 0
	}
	if cfg.Relay.SweepInterval <= 0 {
		cfg.Relay.SweepInterval = time.Hour
	}
}

// Validate checks the fields the process cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("%w: bot.token (TELEGRAM_TOKEN) is required", ErrConfig)
	}
	if c.Bot.OperatorID <= 0 {
		return fmt.Errorf("%w: bot.operator_id (OWNER_ID) is required", ErrConfig)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port %d out of range", ErrConfig, c.HTTP.Port)
	}
	switch c.Storage.Driver {
	case DriverFile:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: storage.database_url is required for the postgres driver", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrConfig, c.Storage.Driver)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}
