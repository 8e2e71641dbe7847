package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/metrics"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
	"github.com/dropDatabas3/hellotodo/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// IPRateKey limita por IP de origen.
func IPRateKey(r *http.Request) string {
	return "ip|" + clientIP(r)
}

// WithRateLimit rechaza con 429 cuando la clave excede la ventana. Si el
// limiter falla, el request pasa.
func WithRateLimit(l rate.Limiter, key RateKeyFunc) Middleware {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if key == nil {
		key = IPRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				metrics.RateLimited.Inc()
				httperrors.WriteError(w, http.StatusTooManyRequests, httperrors.CodeRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
