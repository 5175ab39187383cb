package config

import "time"

// RateLimitConfig contains login throttling configuration.
type RateLimitConfig struct {
	// LoginMax is the number of login attempts allowed per window.
	LoginMax int `env:"LOGIN_MAX" envDefault:"5"`

	// LoginWindow is the sliding window the attempt budget applies to.
	LoginWindow time.Duration `env:"LOGIN_WINDOW" envDefault:"1m"`

	// Shared switches the limiter from per-session buckets to the shared
	// Redis-backed store keyed by client address.
	Shared bool `env:"SHARED" envDefault:"false"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.LoginMax <= 0 {
		r.LoginMax = 5
	}
	if r.LoginWindow <= 0 {
		r.LoginWindow = time.Minute
	}
}
