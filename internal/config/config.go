// Package config loads process settings from the environment.
//
// An optional .env file is read first; variables already set in the
// environment take precedence over it. Command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultProgramID is the program ID of the deployed presale.
const DefaultProgramID = "91uNkK5URavMx6onv6c8XTZ6VkEj4RzA6Xa4pQydWs2s"

// Environment variable names.
const (
	EnvDBPath        = "PRESALE_DB_PATH"
	EnvProgramID     = "PRESALE_PROGRAM_ID"
	EnvHTTPAddr      = "PRESALE_HTTP_ADDR"
	EnvRedisURL      = "PRESALE_REDIS_URL"
	EnvEventsChannel = "PRESALE_EVENTS_CHANNEL"
	EnvLogLevel      = "PRESALE_LOG_LEVEL"
	EnvMaxBodyBytes  = "PRESALE_MAX_BODY_BYTES"
)

type Config struct {
	// Storage
	DBPath    string
	ProgramID string

	// HTTP
	HTTPAddr     string
	MaxBodyBytes int64

	// Events; an empty RedisURL disables publication.
	RedisURL      string
	EventsChannel string

	LogLevel slog.Level
}

// Load reads the optional .env files (default ".env") and then the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	level, err := ParseLevel(getEnv(EnvLogLevel, "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:        getEnv(EnvDBPath, "./presale.db"),
		ProgramID:     getEnv(EnvProgramID, DefaultProgramID),
		HTTPAddr:      getEnv(EnvHTTPAddr, ":8080"),
		MaxBodyBytes:  getEnvInt64(EnvMaxBodyBytes, 1<<20),
		RedisURL:      getEnv(EnvRedisURL, ""),
		EventsChannel: getEnv(EnvEventsChannel, "presale.events"),
		LogLevel:      level,
	}, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}
