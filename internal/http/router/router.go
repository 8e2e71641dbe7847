// Package router arma el chi.Router del servicio.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/http/handlers"
	mw "github.com/dropDatabas3/hellotodo/internal/http/middlewares"
	"github.com/dropDatabas3/hellotodo/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth  mw.Authenticator
	Store handlers.Pinger

	// Opcionales
	Limiter      rate.Limiter
	Metrics      http.Handler
	ReadyTimeout time.Duration
}

// New registra las rutas públicas (health, metrics) y las autenticadas bajo /v1.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRequestID(), mw.WithLogging(), mw.WithRecover())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.CodeNotFound, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, httperrors.CodeMethodNotAllowed, "")
	})

	r.Get("/healthz", handlers.Healthz)
	r.Get("/readyz", handlers.Readyz(d.Store, d.ReadyTimeout))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.WithRateLimit(d.Limiter, mw.IPRateKey), mw.RequireAuth(d.Auth))
		r.Get("/userinfo", handlers.UserInfo)
	})
	return r
}
