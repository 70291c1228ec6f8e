package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"card_fraud_detector/internal/money"
)

type Config struct {
	Input     string // path to a record file, "-" for stdin
	Dates     string // comma separated days
	Threshold string
	Currency  string
	Workers   int
	Log       LogConfig
}

type LogConfig struct {
	Level  string
	Format string // "console" or "json"
}

// Load reads an optional .env file from the working directory, then the
// process environment.
func Load(log zerolog.Logger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on environment")
	}

	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Input:     getEnv("FRAUD_INPUT", "-"),
		Dates:     getEnv("FRAUD_DATE", ""),
		Threshold: getEnv("FRAUD_THRESHOLD", ""),
		Currency:  getEnv("FRAUD_CURRENCY", money.DefaultCurrency),
		Workers:   getEnvAsInt("FRAUD_WORKERS", 4),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}
