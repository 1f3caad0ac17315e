package model

import "time"

// RetryConfig defines backoff for caller-side retries of storage failures
type RetryConfig struct {
	MaxAttempts       int           `json:"maxAttempts"`
	InitialDelay      time.Duration `json:"initialDelay"`
	MaxDelay          time.Duration `json:"maxDelay"`
	BackoffMultiplier float64       `json:"backoffMultiplier"`
}
