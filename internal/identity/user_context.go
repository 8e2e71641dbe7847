package identity

import (
	"context"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

// UserContext identifica al usuario interno de un request autenticado.
// Sólo el Resolver lo construye.
type UserContext struct {
	tenantID   string
	userID     string
	externalID string
	name       string
	email      string
}

func newUserContext(u store.User) UserContext {
	return UserContext{
		tenantID:   u.TenantID,
		userID:     u.ID,
		externalID: u.ExternalID,
		name:       u.Name,
		email:      u.Email,
	}
}

func (c UserContext) TenantID() string   { return c.tenantID }
func (c UserContext) UserID() string     { return c.userID }
func (c UserContext) ExternalID() string { return c.externalID }
func (c UserContext) Name() string       { return c.name }
func (c UserContext) Email() string      { return c.email }
func (c UserContext) IsZero() bool       { return c.userID == "" }

// Owns reporta si un recurso (tenantID, userID) pertenece a este usuario.
// Coincidencia exacta en ambos campos; un contexto vacío no posee nada.
func (c UserContext) Owns(tenantID, userID string) bool {
	if c.IsZero() || c.tenantID == "" {
		return false
	}
	return c.tenantID == tenantID && c.userID == userID
}

type ctxKey struct{}

// WithUserContext adjunta el usuario resuelto al contexto del request.
func WithUserContext(ctx context.Context, uc UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, uc)
}

// FromContext recupera el usuario resuelto, si lo hay.
func FromContext(ctx context.Context) (UserContext, bool) {
	uc, ok := ctx.Value(ctxKey{}).(UserContext)
	return uc, ok && !uc.IsZero()
}
