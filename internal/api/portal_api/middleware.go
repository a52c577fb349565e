package portal_api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/BearBump/ParcelPortal/internal/services/auth"
)

type ctxKey struct{}

// AdminFromContext returns the admin authenticated by requireAdmin.
func AdminFromContext(ctx context.Context) (*auth.Admin, bool) {
	a, ok := ctx.Value(ctxKey{}).(*auth.Admin)
	return a, ok
}

// requireAdmin accepts a bearer token or the admin-token cookie.
func (a *PortalAPI) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := a.auth.VerifyToken(tokenFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, admin)))
	})
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// rateLimit counts requests per client address. Limiter failures let the
// request through.
func (a *PortalAPI) rateLimit(scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if a.opts.RateLimiter == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:" + scope + ":" + clientIP(r)
			ok, n, err := a.opts.RateLimiter.Allow(r.Context(), key, int64(perMinute), rateWindow)
			if err != nil {
				slog.Warn("rate limiter unavailable", "scope", scope, "error", err.Error())
			} else if !ok {
				slog.Warn("rate limit exceeded", "scope", scope, "key", key, "count", n)
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
