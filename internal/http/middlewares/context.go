package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellotodo/internal/authn"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxPrincipalKey ctxKey = "principal"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func setPrincipal(ctx context.Context, p authn.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetPrincipal devuelve el principal autenticado por RequireAuth.
func GetPrincipal(ctx context.Context) (authn.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipalKey).(authn.Principal)
	return p, ok
}
