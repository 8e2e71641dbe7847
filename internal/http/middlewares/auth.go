package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellotodo/internal/authn"
	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/identity"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

// Authenticator es lo que RequireAuth necesita de authn.Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (authn.Principal, error)
}

// RequireAuth valida Authorization: Bearer <JWT>, resuelve el usuario interno y
// lo deja en el contexto. Cualquier fallo de verificación o resolución responde
// 401 con cuerpo uniforme; si el store no responde, 503.
func RequireAuth(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httperrors.WriteUnauthorized(w)
				return
			}

			log := logger.From(r.Context())
			p, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, identity.ErrStoreUnavailable) {
					log.Error("user store unavailable", logger.Err(err))
					httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeUnavailable, "user store unavailable")
					return
				}
				log.Info("bearer rejected", logger.Err(err))
				httperrors.WriteUnauthorized(w)
				return
			}

			ctx := setPrincipal(r.Context(), p)
			ctx = identity.WithUserContext(ctx, p.User)
			ctx = logger.ToContext(ctx, log.With(logger.TenantID(p.User.TenantID()), logger.UserID(p.User.UserID())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(ah[len(prefix):])
	return raw, raw != ""
}
