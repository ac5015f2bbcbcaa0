package tcp

import (
	"math"
	"time"
)

// BackoffConfig controls dial retry delays while peers are still starting.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff starts at 10ms and doubles up to 500ms.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2,
	}
}

// nextBackoffDelay returns the retry delay for attempt N (1-based).
func nextBackoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
