package httpx

import (
	"net/http"
)

// GuardResult is the outcome of one guard: continue to the next guard (and
// ultimately the handler), redirect, or reject. The router short-circuits on
// the first non-continue result.
type GuardResult struct {
	proceed  bool
	location string

	status  int
	code    string
	message string
	// fallbackPath is where browser requests land after a reject (401 aside,
	// which redirects to login). Defaults to the site root.
	fallbackPath string
}

// Continue lets the pipeline proceed.
func Continue() GuardResult {
	return GuardResult{proceed: true}
}

// RedirectTo short-circuits the pipeline with a redirect.
func RedirectTo(path string) GuardResult {
	return GuardResult{location: path}
}

// RejectWith short-circuits the pipeline with an error status and code.
func RejectWith(status int, code, message string) GuardResult {
	return GuardResult{status: status, code: code, message: message}
}

// WithFallback sets the browser-flow landing page for a reject result.
func (g GuardResult) WithFallback(path string) GuardResult {
	g.fallbackPath = path
	return g
}

// Guard is a middleware-like check invoked before a request handler. Guards
// read request state (the session travels in the request context, placed
// there by WithSession) and may mutate the session in place; they must not
// write the response themselves.
type Guard func(r *http.Request) GuardResult

// Chain composes guards into a middleware that evaluates them in order and
// short-circuits on the first non-continue result. This replaces resolving
// middleware by name: the ordered guard list is explicit at route
// registration.
func Chain(guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				if res := g(r); !res.proceed {
					res.render(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// render converts a non-continue result into an HTTP response. Browser
// requests get redirects (401 escalates to the login page with a return
// path); API requests get the structured JSON error body.
func (g GuardResult) render(w http.ResponseWriter, r *http.Request) {
	if g.location != "" {
		http.Redirect(w, r, g.location, http.StatusSeeOther)
		return
	}

	if IsBrowserRequest(r) {
		if g.status == http.StatusUnauthorized {
			redirectToLogin(w, r)
			return
		}
		fallback := g.fallbackPath
		if fallback == "" {
			fallback = "/"
		}
		http.Redirect(w, r, fallback+"?error="+g.code, http.StatusSeeOther)
		return
	}

	WriteError(w, ErrorParams{Code: g.status, ErrCode: g.code, Message: g.message})
}
