// Package errors escribe las respuestas de error JSON del servicio.
package errors

import (
	"encoding/json"
	"net/http"
)

// Códigos estables expuestos a clientes.
const (
	CodeInvalidToken     = "invalid_token"
	CodeUnavailable      = "temporarily_unavailable"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteError escribe {error, error_description, request_id}. El request id se
// toma del header de respuesta que setea WithRequestID.
func WriteError(w http.ResponseWriter, status int, code, desc string) {
	WriteJSON(w, status, errorResponse{
		Error:            code,
		ErrorDescription: desc,
		RequestID:        w.Header().Get("X-Request-ID"),
	})
}

// WriteUnauthorized responde 401 con cuerpo uniforme: nunca indica qué paso
// de la verificación falló.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": CodeInvalidToken})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
