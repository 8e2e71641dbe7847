package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - IDENTIDAD
// =================================================================================

// TenantID crea un campo para el ID del tenant.
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// UserID crea un campo para el ID interno del usuario.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// ExternalID crea un campo para el subject emitido por el proveedor de identidad.
func ExternalID(v string) zap.Field { return zap.String("external_id", v) }

// Domain crea un campo para el dominio del proveedor de identidad.
func Domain(v string) zap.Field { return zap.String("idp_domain", v) }

// KID crea un campo para el key id de un token.
func KID(v string) zap.Field { return zap.String("kid", v) }

// ClientID crea un campo para el ID del cliente OAuth.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }
