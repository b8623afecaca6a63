// Package config resolves the small number of environment-driven
// settings this engine needs: the catalog directory, the log level, and
// the optional Seq endpoint. Three scalar settings don't warrant a
// third-party config library (viper et al. belong to the network/config-
// server components the spec explicitly excludes) — plain os.Getenv with
// documented defaults is the idiomatic choice here.
package config

import (
	"log/slog"
	"os"
	"strings"
)

const (
	envCatalogDir = "MINIRDBMS_DATA_DIR"
	envSeqURL     = "MINIRDBMS_SEQ_URL"
	envLogLevel   = "MINIRDBMS_LOG_LEVEL"

	defaultCatalogDir = "./data"
	defaultSeqURL      = "http://localhost:5341"
)

// Config holds the engine's environment-resolved settings.
type Config struct {
	CatalogDir string
	SeqURL     string
	LogLevel   slog.Level
}

// Load resolves settings from the environment, falling back to defaults.
func Load() Config {
	return Config{
		CatalogDir: getenv(envCatalogDir, defaultCatalogDir),
		SeqURL:     getenv(envSeqURL, defaultSeqURL),
		LogLevel:   parseLevel(getenv(envLogLevel, "DEBUG")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
