package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type CodesConfig struct {
	TTL              time.Duration `yaml:"ttl"`         // validity window of an issued code
	GCInterval       time.Duration `yaml:"gc_interval"` // expired-code purge cadence
	IssueLimit       int           `yaml:"issue_limit"` // issues per subscriber per window
	IssueLimitWindow time.Duration `yaml:"issue_limit_window"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Codes    CodesConfig    `yaml:"codes"`
	Auth     AuthConfig     `yaml:"auth"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, then applies environment overrides for
// secrets. A .env file next to the binary is honored when present.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env overrides
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.CacheTTL <= 0 {
		cfg.Redis.CacheTTL = 15 * time.Minute
	}
	if cfg.Codes.TTL <= 0 {
		cfg.Codes.TTL = 15 * time.Minute
	}
	if cfg.Codes.GCInterval <= 0 {
		cfg.Codes.GCInterval = 10 * time.Minute
	}
	if cfg.Codes.IssueLimit <= 0 {
		cfg.Codes.IssueLimit = 10
	}
	if cfg.Codes.IssueLimitWindow <= 0 {
		cfg.Codes.IssueLimitWindow = time.Minute
	}

	cfg.Runtime.Dev = dev
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url (or DATABASE_URL) is required")
	}
	return &cfg, nil
}
