package identity

import "errors"

var (
	// ErrProvisioningFailed: no se pudo crear el usuario (userinfo falló o no
	// corresponde a la identidad verificada).
	ErrProvisioningFailed = errors.New("identity: provisioning failed")
	// ErrStoreUnavailable: el store falló por algo distinto de "no existe".
	// Nunca dispara aprovisionamiento.
	ErrStoreUnavailable = errors.New("identity: user store unavailable")
)
