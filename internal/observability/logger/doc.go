// Package logger provee un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" o "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En handlers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("user provisioned", logger.TenantID(tid), logger.UserID(uid))
//
// Los paquetes de librería (jwt, identity, devicelogin) reciben un *zap.Logger
// explícito; este paquete sólo arma el logger del proceso.
package logger
