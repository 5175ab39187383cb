package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/copperline/storefront/config"
	httpx "github.com/copperline/storefront/internal/http"
	"github.com/copperline/storefront/internal/ports"
	"github.com/copperline/storefront/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config        *config.AppConfig
	Auth          *service.AuthService
	SharedWindows ports.WindowStore
	Logger        *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Auth:    cfg.Auth,
		Limiter: service.NewRateLimiter(nil),
		LoginPolicy: service.Policy{
			Max:    appCfg.RateLimit.LoginMax,
			Window: appCfg.RateLimit.LoginWindow,
		},
		CookieDomain: cookieDomain(appCfg.HTTP),
		RememberTTL:  appCfg.Auth.RememberTTL,
		IsDev:        appCfg.IsDev,
		Logger:       logger,
	}
	if appCfg.RateLimit.Shared {
		services.SharedWindows = cfg.SharedWindows
	}

	// Order: Recover -> Logging -> Router
	handler := httpx.NewRouter(services)
	handler = httpx.Logging(logger)(handler)
	handler = httpx.Recover(logger)(handler)

	return startServer(logger, handler, appCfg.HTTP.Addr)
}

// cookieDomain resolves the cookie domain, falling back to the host of the
// public base URL when no explicit domain is configured.
func cookieDomain(cfg config.HTTPConfig) string {
	if cfg.CookieDomain != "" {
		return cfg.CookieDomain
	}
	if cfg.BaseURL == "" {
		return ""
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return ""
	}
	// Host-only cookies for local serving; a Domain attribute of
	// "localhost" behaves inconsistently across browsers.
	if host := u.Hostname(); host != "localhost" {
		return host
	}
	return ""
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
