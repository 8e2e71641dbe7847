package config

import (
	"fmt"
	"strings"
	"time"
)

const DefaultScope = "openid profile email offline_access"

// CLI es la configuración del comando todo. Sólo se lee del entorno.
type CLI struct {
	Domain            string
	ClientID          string
	Audience          string
	Scope             string
	TodoURL           string
	CredentialBackend string // file | keyring
	CredentialsFile   string // vacío = ~/.credentials.json
	HTTPTimeout       time.Duration
}

func LoadCLI() *CLI {
	c := &CLI{
		Scope:             DefaultScope,
		TodoURL:           "http://localhost:8080",
		CredentialBackend: "file",
		HTTPTimeout:       30 * time.Second,
	}
	if v, ok := getEnvStr("DOMAIN"); ok {
		c.Domain = v
	}
	if v, ok := getEnvStr("CLIENT_ID"); ok {
		c.ClientID = v
	}
	if v, ok := getEnvStr("AUDIENCE"); ok {
		c.Audience = v
	}
	if v, ok := getEnvStr("SCOPE"); ok {
		c.Scope = v
	}
	if v, ok := getEnvStr("TODO_URL"); ok {
		c.TodoURL = strings.TrimRight(v, "/")
	}
	if v, ok := getEnvStr("CREDENTIAL_BACKEND"); ok {
		c.CredentialBackend = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CREDENTIALS_FILE"); ok {
		c.CredentialsFile = v
	}
	if v, ok := getEnvDur("HTTP_TIMEOUT"); ok {
		c.HTTPTimeout = v
	}
	return c
}

// Validate exige lo necesario para hablar con el proveedor.
func (c *CLI) Validate() error {
	var missing []string
	if c.Domain == "" {
		missing = append(missing, "DOMAIN")
	}
	if c.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if c.Audience == "" {
		missing = append(missing, "AUDIENCE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	switch c.CredentialBackend {
	case "file", "keyring":
	default:
		return fmt.Errorf("%w: CREDENTIAL_BACKEND %q not supported", ErrInvalid, c.CredentialBackend)
	}
	return nil
}
