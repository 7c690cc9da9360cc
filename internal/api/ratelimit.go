package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/assetverse/asset-service/internal/app"
)

// RateLimiter records one hit for subject and reports whether it is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (app.RateLimitDecision, error)
}

// RateLimit limits requests per client address. Limiter errors are logged
// and the request is let through.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), clientAddress(r))
			if err != nil {
				log.Printf("level=warn component=ratelimit msg=\"limiter unavailable, allowing request\" path=%s err=%v", r.URL.Path, err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				seconds := int(decision.RetryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				respondWithError(w, r, app.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddress returns the host part of RemoteAddr, which RealIP has
// already rewritten when the service runs behind a proxy.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
