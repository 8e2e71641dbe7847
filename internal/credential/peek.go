package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errNoExpiry = errors.New("credential: token has no exp claim")

// PeekExpiry lee el claim exp del payload SIN verificar la firma. Sirve sólo
// para que el CLI decida si refrescar su propio token; nunca para autenticar.
func PeekExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("credential: token has %d segments", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, fmt.Errorf("credential: decode payload: %w", err)
	}

	var claims struct {
		Exp *json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("credential: parse payload: %w", err)
	}
	if claims.Exp == nil {
		return time.Time{}, errNoExpiry
	}
	f, err := claims.Exp.Float64()
	if err != nil {
		return time.Time{}, fmt.Errorf("credential: exp: %w", err)
	}
	return time.Unix(int64(f), 0), nil
}

// expired reporta si el token venció a now (segundos enteros). Si no se puede
// decodificar se considera vencido.
func expired(token string, now time.Time) bool {
	exp, err := PeekExpiry(token)
	if err != nil {
		return true
	}
	return exp.Unix() < now.Unix()
}
