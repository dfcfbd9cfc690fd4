package domain

import (
	"os"
	"strconv"
)

// AutoBidConfig holds the increment and per-position floors used when
// pricing automatic bidders.
type AutoBidConfig struct {
	Step   int64
	Floors [3]int64
}

const (
	DefaultAutoBidStep  = 50
	DefaultAutoBidFloor = 300
)

func LoadFromEnv() *AutoBidConfig {
	return &AutoBidConfig{
		Step: getEnvInt64("AUTOBID_STEP", DefaultAutoBidStep),
		Floors: [3]int64{
			getEnvInt64("AUTOBID_FLOOR_P1", DefaultAutoBidFloor),
			getEnvInt64("AUTOBID_FLOOR_P2", DefaultAutoBidFloor),
			getEnvInt64("AUTOBID_FLOOR_P3", DefaultAutoBidFloor),
		},
	}
}

// FloorAt returns the floor for a 1-based position.
func (c AutoBidConfig) FloorAt(position int) int64 {
	if position < 1 || position > len(c.Floors) {
		return 0
	}
	return c.Floors[position-1]
}

func getEnvInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}
