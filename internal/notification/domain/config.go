package domain

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// DedupeTTL bounds how long a dedupe key suppresses repeats.
	DedupeTTL         time.Duration
	SlackWebhookURL   string
	DispatchBatchSize int
}

func LoadFromEnv() *Config {
	return &Config{
		DedupeTTL:         getEnvDuration("NOTIFICATION_DEDUPE_TTL", 24*time.Hour),
		SlackWebhookURL:   os.Getenv("NOTIFICATION_SLACK_WEBHOOK"),
		DispatchBatchSize: getEnvInt("NOTIFICATION_DISPATCH_BATCH", 50),
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}
