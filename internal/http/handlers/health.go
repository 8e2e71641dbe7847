// Package handlers contiene los endpoints HTTP del servicio.
package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

// Pinger es cualquier dependencia que readyz debe chequear.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz: liveness, no toca dependencias.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pinguea el store de usuarios con un timeout corto.
func Readyz(p Pinger, timeout time.Duration) http.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Component("user_store"), logger.Err(err))
			httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeUnavailable, "user store unavailable")
			return
		}
		httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
