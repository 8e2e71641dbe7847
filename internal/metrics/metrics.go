package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors del núcleo de identidad. Viven en un paquete propio para que jwt,
// identity y http puedan instrumentarse sin ciclos de import.

var (
	KeySetFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellotodo_jwks_fetch_total",
		Help: "Descargas de JWKS por resultado (ok|error)",
	}, []string{"result"})

	KeySetFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hellotodo_jwks_fetch_seconds",
		Help:    "Latencia de descarga de JWKS",
		Buckets: prometheus.DefBuckets,
	})

	KeySetCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellotodo_jwks_cache_lookups_total",
		Help: "Lookups del cache de KeySet por tier y resultado",
	}, []string{"tier", "result"})

	TokenVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellotodo_token_verifications_total",
		Help: "Verificaciones de access tokens por resultado",
	}, []string{"result"})

	IdentityResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellotodo_identity_resolutions_total",
		Help: "Resoluciones de identidad por origen (cache|store|provisioned|error)",
	}, []string{"source"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellotodo_http_requests_total",
		Help: "Requests HTTP por método, ruta y status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hellotodo_http_request_duration_seconds",
		Help:    "Duración de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellotodo_rate_limited_total",
		Help: "Requests rechazados por rate limit",
	})
)

func all() []prometheus.Collector {
	return []prometheus.Collector{
		KeySetFetches,
		KeySetFetchLatency,
		KeySetCacheLookups,
		TokenVerifications,
		IdentityResolutions,
		HTTPRequests,
		HTTPRequestDuration,
		RateLimited,
	}
}

// Register registra los collectors en reg (o en el default si es nil).
// Registrar dos veces no es un error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range all() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
