package middlewares

import (
	"net/http"

	"go.uber.org/zap"

	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

// WithRecover captura panics y devuelve un error 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered", logger.Op("recover"), zap.Any("panic", rec))
					httperrors.WriteError(w, http.StatusInternalServerError, httperrors.CodeInternal, "")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
