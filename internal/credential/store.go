// Package credential guarda los tokens del CLI entre invocaciones y los
// renueva cuando el access token venció.
package credential

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyIDToken      = "id_token"
)

// Store es almacenamiento clave/valor de credenciales. Load sobre un store
// vacío devuelve un mapa vacío sin error; Delete sobre un store vacío no falla.
type Store interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
	Delete() error
}
