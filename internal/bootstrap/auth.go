package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/copperline/storefront/config"
	redisadapter "github.com/copperline/storefront/internal/adapters/redis"
	"github.com/copperline/storefront/internal/data"
	"github.com/copperline/storefront/internal/ports"
	"github.com/copperline/storefront/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService wires the credential store and session store into the
// auth service. Returns nil when required infrastructure is missing.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.DB == nil || cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: database or redis client not configured")
		}
		return nil
	}

	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	return service.NewAuthService(service.AuthServiceOptions{
		Credentials: data.NewCredentialStore(cfg.DB),
		Sessions:    sessionStore,
		SessionTTL:  cfg.Auth.SessionTTL,
		RememberTTL: cfg.Auth.RememberTTL,
	})
}

// BuildSharedWindowStore creates the Redis-backed rate-limit window store
// used when shared (cross-session) limiting is enabled.
//
//nolint:ireturn // the port type keeps the caller agnostic of the backing store.
func BuildSharedWindowStore(client redis.UniversalClient) ports.WindowStore {
	if client == nil {
		return nil
	}
	return redisadapter.NewWindowStore(client)
}
