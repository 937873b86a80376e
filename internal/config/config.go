package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	PreviewDir          string
	AssetsDir           string
	EnableMermaidCharts bool

	HTTPAddr  string
	RedisAddr string
	CacheTTL  time.Duration

	SessionTTL         time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. The binary's directory wins, since MCP clients launch us from anywhere.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir), nil
}

// FromEnv builds the configuration from the process environment alone.
func FromEnv(exeDir string) *AppConfig {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	previewDir := getEnv("PREVIEW_DIR", filepath.Join(dataPath, "preview"))

	for _, dir := range []string{logDir, previewDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	return &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		PreviewDir:          previewDir,
		AssetsDir:           getEnv("ASSETS_DIR", filepath.Join(dataPath, "assets")),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		CacheTTL:            time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		SessionTTL:          time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		RateLimitPerSecond:  getEnvFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid number setting")
	}
	return fallback
}
