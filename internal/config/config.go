package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Engine    EngineConfig
	MarketAPI MarketAPIConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig holds configuration for the recomputation engine and scheduler.
type EngineConfig struct {
	// SnapshotCron drives the carry-forward -> revaluation -> normalizer pass.
	// Top of hour plus an offset so the price refresh lands first.
	SnapshotCron string
	// MetricCron drives the post-aggregation scoring pass, independently.
	MetricCron string
	// PriceCron drives the market-data refresh into the stock_price table.
	PriceCron string
	// WorkerLimit caps the number of portfolios processed concurrently in one run.
	WorkerLimit int
	// RiskFreeRate used by the Sharpe ratio, as a percentage. Defaults to 0.
	RiskFreeRate float64
	// BenchmarkSymbol names the reference index series used for beta.
	BenchmarkSymbol string
}

// MarketAPIConfig holds settings for the external market-data fetcher boundary.
type MarketAPIConfig struct {
	BaseURL string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/stocktrackr.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Engine: EngineConfig{
			SnapshotCron:    getEnv("SNAPSHOT_CRON", "10 * * * *"),
			MetricCron:      getEnv("METRIC_CRON", "20 * * * *"),
			PriceCron:       getEnv("PRICE_CRON", "0 * * * *"),
			WorkerLimit:     getEnvInt("ENGINE_WORKER_LIMIT", 4),
			RiskFreeRate:    getEnvFloat("RISK_FREE_RATE", 0),
			BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "SPY"),
		},
		MarketAPI: MarketAPIConfig{
			BaseURL: getEnv("MARKET_API_BASE_URL", "https://query1.finance.yahoo.com"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvFloat gets a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
