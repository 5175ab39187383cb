package config

import "time"

// AuthConfig groups session and remember-me token configuration.
type AuthConfig struct {
	// SessionTTL is the sliding lifetime of a visitor session.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// RememberTTL is the lifetime of a remember-me token.
	RememberTTL time.Duration `env:"REMEMBER_TTL" envDefault:"720h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 12 * time.Hour
	}
	if a.RememberTTL <= 0 {
		a.RememberTTL = 720 * time.Hour
	}
}
