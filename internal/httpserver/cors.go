package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/adaptive-tdee/internal/config"
)

const (
	corsAllowMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders = "Content-Type,X-Request-ID"
)

// CORSMiddleware returns an http.Handler that adds CORS headers for the
// configured origins. "*" allows any origin without credentials.
func CORSMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.CORSAllowedOrigins))
	wildcard := false
	for _, o := range cfg.CORSAllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = true
	}

	isAllowed := func(origin string) bool {
		return origin != "" && (allowed[origin] || wildcard)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")

			if cfg.CORSAllowCredentials && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}

		// Preflight
		if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
			if isAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
