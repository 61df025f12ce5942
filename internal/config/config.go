package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration from defaults, an optional TOML file and the environment.
type Config struct {
	HTTPPort string `toml:"http_port"`
	LogLevel string `toml:"log_level"`

	StorageDriver string `toml:"storage_driver"` // json, postgres, memory
	DataFile      string `toml:"data_file"`
	StorageRepair bool   `toml:"storage_repair"`
	LockTimeoutMS int    `toml:"lock_timeout_ms"`

	DatabaseURL string `toml:"database_url"`
	DBPoolSize  int    `toml:"db_pool_size"`

	RedisURL      string `toml:"redis_url"`
	RedisPoolSize int    `toml:"redis_pool_size"`
	CacheTTL      int    `toml:"cache_ttl_sec"` // seconds

	KafkaBrokers    []string `toml:"kafka_brokers"`
	KafkaTopic      string   `toml:"kafka_topic"`
	KafkaPartitions int      `toml:"kafka_partitions"`
	KafkaGroupID    string   `toml:"kafka_group_id"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:        "8080",
		LogLevel:        "info",
		StorageDriver:   DriverJSON,
		DataFile:        "todos.json",
		LockTimeoutMS:   5000,
		DBPoolSize:      10,
		RedisPoolSize:   10,
		CacheTTL:        300,
		KafkaTopic:      "todo-events",
		KafkaPartitions: 1,
	}
}

// Load builds the config: defaults, then the TOML file named by CONFIG_FILE
// (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.DataFile = getEnv("DATA_FILE", c.DataFile)
	c.StorageRepair = getBoolEnv("STORAGE_REPAIR", c.StorageRepair)
	c.LockTimeoutMS = getIntEnv("LOCK_TIMEOUT_MS", c.LockTimeoutMS)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DBPoolSize = getIntEnv("DB_POOL_SIZE", c.DBPoolSize)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPoolSize = getIntEnv("REDIS_POOL_SIZE", c.RedisPoolSize)
	c.CacheTTL = getIntEnv("CACHE_TTL_SEC", c.CacheTTL)
	c.KafkaBrokers = getSliceEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TODO_TOPIC", c.KafkaTopic)
	c.KafkaPartitions = getIntEnv("KAFKA_PARTITIONS", c.KafkaPartitions)
	c.KafkaGroupID = getEnv("KAFKA_GROUP_ID", c.KafkaGroupID)
}

func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %q", c.HTTPPort)
	}
	switch c.StorageDriver {
	case DriverJSON:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the %s driver", DriverJSON)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
		if c.DBPoolSize <= 0 {
			return fmt.Errorf("DB_POOL_SIZE must be positive, got %d", c.DBPoolSize)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be one of json, postgres, memory", c.StorageDriver)
	}
	if c.LockTimeoutMS <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT_MS must be positive, got %d", c.LockTimeoutMS)
	}
	if c.RedisURL != "" && c.RedisPoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.RedisPoolSize)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TODO_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// LoadEnvFile reads a .env file and sets env vars (only if not already set).
func LoadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		val = unquote(strings.TrimSpace(val))
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getSliceEnv(key string, defaultVal []string) []string {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultVal
}
