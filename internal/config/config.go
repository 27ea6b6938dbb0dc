package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Addr             string        `yaml:"addr"`
	DataDir          string        `yaml:"dataDir"`
	DBDriver         string        `yaml:"dbDriver"`
	DBPath           string        `yaml:"dbPath"`
	DatabaseURL      string        `yaml:"databaseURL"`
	LogLevel         string        `yaml:"logLevel"`
	LogFormat        string        `yaml:"logFormat"`
	NodeID           int64         `yaml:"nodeID"`
	RateLimitMax     int           `yaml:"rateLimitMax"`
	RateLimitWindow  time.Duration `yaml:"rateLimitWindow"`
	RateLimitBackend string        `yaml:"rateLimitBackend"`
	RedisAddr        string        `yaml:"redisAddr"`
	RedisPassword    string        `yaml:"redisPassword"`
	RedisPrefix      string        `yaml:"redisPrefix"`
	TrustedProxies   []string      `yaml:"trustedProxies"`
	CORSOrigins      []string      `yaml:"corsOrigins"`
	EnableSwagger    bool          `yaml:"enableSwagger"`
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`
}

func defaults() Config {
	return Config{
		Addr:             ":8080",
		DataDir:          "data",
		DBDriver:         DriverSQLite,
		LogLevel:         "info",
		LogFormat:        "text",
		RateLimitMax:     60,
		RateLimitWindow:  60 * time.Second,
		RateLimitBackend: BackendMemory,
		RedisPrefix:      "snipbox:ratelimit",
		CORSOrigins:      []string{"*"},
		EnableSwagger:    true,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// SNIPBOX_CONFIG, and SNIPBOX_* environment overrides, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("SNIPBOX_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "snipbox.db")
	}
	cfg.DBPath = filepath.Clean(cfg.DBPath)

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("SNIPBOX_ADDR", &cfg.Addr)
	setString("SNIPBOX_DATA_DIR", &cfg.DataDir)
	setString("SNIPBOX_DB_DRIVER", &cfg.DBDriver)
	setString("SNIPBOX_DB_PATH", &cfg.DBPath)
	setString("SNIPBOX_DATABASE_URL", &cfg.DatabaseURL)
	setString("SNIPBOX_LOG_LEVEL", &cfg.LogLevel)
	setString("SNIPBOX_LOG_FORMAT", &cfg.LogFormat)
	setString("SNIPBOX_RATE_LIMIT_BACKEND", &cfg.RateLimitBackend)
	setString("SNIPBOX_REDIS_ADDR", &cfg.RedisAddr)
	setString("SNIPBOX_REDIS_PASSWORD", &cfg.RedisPassword)
	setString("SNIPBOX_REDIS_PREFIX", &cfg.RedisPrefix)

	if v := os.Getenv("SNIPBOX_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if v := os.Getenv("SNIPBOX_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}

	if v := os.Getenv("SNIPBOX_NODE_ID"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("config: SNIPBOX_NODE_ID: %w", err)
		}
		cfg.NodeID = n
	}
	if v := os.Getenv("SNIPBOX_RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SNIPBOX_RATE_LIMIT_MAX: %w", err)
		}
		cfg.RateLimitMax = n
	}
	if v := os.Getenv("SNIPBOX_RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SNIPBOX_RATE_LIMIT_WINDOW: %w", err)
		}
		cfg.RateLimitWindow = d
	}
	if v := os.Getenv("SNIPBOX_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SNIPBOX_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("SNIPBOX_ENABLE_SWAGGER"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SNIPBOX_ENABLE_SWAGGER: %w", err)
		}
		cfg.EnableSwagger = b
	}
	return nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return errors.New("config: addr is required")
	}
	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required when dbDriver is postgres")
		}
	default:
		return fmt.Errorf("config: unknown dbDriver %q", cfg.DBDriver)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown logFormat %q", cfg.LogFormat)
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return errors.New("config: nodeID must be between 0 and 1023")
	}
	if cfg.RateLimitMax <= 0 {
		return errors.New("config: rateLimitMax must be > 0")
	}
	if cfg.RateLimitWindow <= 0 {
		return errors.New("config: rateLimitWindow must be > 0")
	}
	switch cfg.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required when rateLimitBackend is redis")
		}
	default:
		return fmt.Errorf("config: unknown rateLimitBackend %q", cfg.RateLimitBackend)
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("config: shutdownTimeout must be > 0")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
