package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/ports"
	"github.com/copperline/storefront/internal/service"
)

// RateLimitConfig configures one rate-limit guard.
type RateLimitConfig struct {
	Svc     AuthServiceInterface
	Limiter *service.RateLimiter

	// Bucket scopes the counter (e.g. "login", "contact").
	Bucket string
	Policy service.Policy

	// Shared, when set, counts in the shared store keyed by client network
	// address instead of in the per-session buckets. Per-session is the
	// default.
	Shared ports.WindowStore

	Logger *slog.Logger
}

// RateLimitGuard enforces a sliding-window budget. The rejected attempt's
// timestamp stays recorded, so a client sitting at the boundary keeps getting
// rejected until older entries age out.
func RateLimitGuard(cfg RateLimitConfig) Guard {
	return func(r *http.Request) GuardResult {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			return RejectWith(http.StatusInternalServerError, "internal_error", "session not resolved")
		}

		// Session buckets are keyed by bucket name alone: the session map
		// already scopes the client, and a key carrying the session ID would
		// orphan the window when a successful login rotates the ID.
		var (
			store ports.WindowStore
			key   string
		)
		if cfg.Shared != nil {
			store = cfg.Shared
			key = service.BucketKey(cfg.Bucket, clientAddr(r))
		} else {
			store = service.SessionWindows{Session: sess}
			key = cfg.Bucket
		}

		decision, err := cfg.Limiter.Check(r.Context(), store, key, cfg.Policy)
		if err != nil {
			logRateLimitFailure(r, cfg.Logger, err)
			return RejectWith(http.StatusInternalServerError, "internal_error", "an internal error occurred")
		}

		// Session buckets mutate in memory; persist so the window survives
		// the request. The over-limit timestamp is persisted too.
		if cfg.Shared == nil {
			if saveErr := cfg.Svc.SaveSession(r.Context(), sess); saveErr != nil {
				logRateLimitFailure(r, cfg.Logger, saveErr)
				return RejectWith(http.StatusInternalServerError, "internal_error", "an internal error occurred")
			}
		}

		if decision == service.Reject {
			return RejectWith(http.StatusTooManyRequests, "rate_limited", domainauth.ErrRateLimited.Error())
		}
		return Continue()
	}
}

func logRateLimitFailure(r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(r.Context(), "rate-limit check failed", "error", err, "path", r.URL.Path)
}
