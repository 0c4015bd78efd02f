// Package config loads the service configuration from environment variables.
// The bot credential, the community id and the Redis address have no sane
// defaults; without them the process refuses to start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	VK struct {
		Token           string        // bot access token (required)
		GroupID         int64         // community id (required)
		PeerID          int64         // the one conversation the bot watches
		Wait            int           // long-poll hold time, seconds
		Backoff         time.Duration // delay before re-acquiring after a transport error
		Notify          bool          // post confirmations for applied commands
		NotifyCacheSize int           // bounded confirmation-id cache
	}

	Redis struct {
		Addr     string // required
		Password string
		DB       int
	}

	Database struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// Load reads the configuration. It returns an error naming the first missing
// required variable; the caller is expected to treat that as fatal.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.VK.Token = os.Getenv("VK_BOT_TOKEN")
	if cfg.VK.Token == "" {
		return nil, fmt.Errorf("required environment variable VK_BOT_TOKEN is not set")
	}

	groupID := os.Getenv("VK_GROUP_ID")
	if groupID == "" {
		return nil, fmt.Errorf("required environment variable VK_GROUP_ID is not set")
	}
	id, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("VK_GROUP_ID must be numeric: %w", err)
	}
	cfg.VK.GroupID = id

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("required environment variable REDIS_ADDR is not set")
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.VK.PeerID = int64(getEnvInt("VK_PEER_ID", 2000000001))
	cfg.VK.Wait = getEnvInt("LONGPOLL_WAIT", 25)
	cfg.VK.Backoff = time.Duration(getEnvInt("LONGPOLL_BACKOFF_SECONDS", 5)) * time.Second
	cfg.VK.Notify = getEnv("VK_NOTIFY", "false") == "true"
	cfg.VK.NotifyCacheSize = getEnvInt("VK_NOTIFY_CACHE_SIZE", 128)

	cfg.Database.Enabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnv("DB_NAME", "minibars")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":3000")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
