// Package config loads runtime configuration for the coordination
// runtime from the environment, with an optional .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every option recognised by the coordinator and its
// agent pools (spec §6 "Configuration").
type Config struct {
	// Pool sizes
	Scouts   int
	Analysts int
	Hunters  int
	Traders  int

	// Trading
	EnableTrading   bool
	MaxDailyTrades  int
	MaxPositionSize float64

	// Collaborators
	RPCEndpoint       string
	WorkersURL        string
	WorkersAPISecret  string
	EnableWorkersSync bool

	// LLM (optional — absence means fallback/rule-based reasoning only)
	LLMEnabled bool
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout int // seconds

	// Database (optional — absence means in-memory persistence only)
	DatabaseEnabled bool
	DatabaseDriver  string // "postgres" | "sqlite"
	DatabaseDSN     string

	// Message bus transport
	RedisAddr string // empty means in-memory bus

	// Dashboard sink
	DashboardURL       string
	DashboardAuthToken string
	DashboardBatchSize int
	DashboardFlushSecs int
}

// Load reads configuration from the environment, applying the .env
// file in the working directory if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Scouts:   getInt("SCOUTS", 2),
		Analysts: getInt("ANALYSTS", 1),
		Hunters:  getInt("HUNTERS", 1),
		Traders:  getInt("TRADERS", 1),

		EnableTrading:   getBool("ENABLE_TRADING", false),
		MaxDailyTrades:  getInt("MAX_DAILY_TRADES", 10),
		MaxPositionSize: getFloat("MAX_POSITION_SIZE", 0.1),

		RPCEndpoint:       getEnv("RPC_ENDPOINT", ""),
		WorkersURL:        getEnv("WORKERS_URL", ""),
		WorkersAPISecret:  getEnv("WORKERS_API_SECRET", ""),
		EnableWorkersSync: getBool("ENABLE_WORKERS_SYNC", false),

		LLMEnabled: getBool("LLM_ENABLED", false),
		LLMBaseURL: getEnv("LLM_BASE_URL", "http://127.0.0.1:11434/api"),
		LLMModel:   getEnv("LLM_MODEL", "deepseek-r1:14b"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMTimeout: getInt("LLM_TIMEOUT_SECONDS", 30),

		DatabaseEnabled: getBool("DATABASE_ENABLED", false),
		DatabaseDriver:  getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "agentmesh.db"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		DashboardURL:       getEnv("DASHBOARD_URL", ""),
		DashboardAuthToken: getEnv("DASHBOARD_AUTH_TOKEN", ""),
		DashboardBatchSize: getInt("DASHBOARD_BATCH_SIZE", 10),
		DashboardFlushSecs: getInt("DASHBOARD_FLUSH_SECONDS", 5),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
