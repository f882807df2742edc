package env

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files.
// ENV_PATH overrides the default paths. Missing files are only an error in local mode.
func LoadDotEnv(env string, defaultPaths ...string) error {
	var envPaths []string
	if os.Getenv("ENV_PATH") != "" {
		envPaths = []string{os.Getenv("ENV_PATH")}
	} else {
		slog.Info("ENV_PATH is not set, using default path", "defaultPaths", defaultPaths)
		envPaths = defaultPaths
	}

	err := godotenv.Load(envPaths...)
	if err != nil {
		if env == "local" || env == "" {
			slog.Error("Failed to load environment variables in local mode", "error", err)
			return err
		}
		slog.Debug("Skipping .env ...")
	}

	return nil
}

// Duration reads a Go duration from key, falling back to def when unset.
func Duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive", key)
	}
	return d, nil
}

// Int reads an integer from key, falling back to def when unset.
func Int(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return n, nil
}

// Bool reports whether key is set to "true" or "1"; def is used when unset.
func Bool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "":
		return def
	case "true", "1":
		return true
	default:
		return false
	}
}

func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LogLevel parses key as a slog level name (debug, info, warn, error).
func LogLevel(key string, def slog.Level) slog.Level {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Invalid log level, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return lvl
}
