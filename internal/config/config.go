package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	OutputDir      string
	DatabaseURL    string
	NatsURL        string
	NatsToken      string
	LogLevel       string
	Workers        int
	SessionTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:           envInt("CHATWEAVE_PORT", 8760),
		OutputDir:      envStr("CHATWEAVE_OUTPUT_DIR", "ir"),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		Workers:        envInt("CHATWEAVE_WORKERS", 4),
		SessionTimeout: envDuration("CHATWEAVE_SESSION_TIMEOUT", 0),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
