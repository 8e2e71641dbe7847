package handlers

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellotodo/internal/http/errors"
	"github.com/dropDatabas3/hellotodo/internal/identity"
)

type userInfoResponse struct {
	UserID     string `json:"user_id"`
	TenantID   string `json:"tenant_id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// UserInfo: GET /v1/userinfo. Requiere RequireAuth antes en la cadena.
func UserInfo(w http.ResponseWriter, r *http.Request) {
	uc, ok := identity.FromContext(r.Context())
	if !ok {
		httperrors.WriteUnauthorized(w)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, userInfoResponse{
		UserID:     uc.UserID(),
		TenantID:   uc.TenantID(),
		ExternalID: uc.ExternalID(),
		Name:       uc.Name(),
		Email:      uc.Email(),
	})
}
