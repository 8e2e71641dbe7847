package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellotodo/internal/config"
	"github.com/dropDatabas3/hellotodo/internal/credential"
	"github.com/dropDatabas3/hellotodo/internal/devicelogin"
	"github.com/dropDatabas3/hellotodo/internal/oauth"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

var errNotLoggedIn = errors.New("not logged in: run `todo login`")

// cli agrupa las dependencias de los comandos; los tests reemplazan store,
// opener y sleep.
type cli struct {
	cfg    *config.CLI
	out    io.Writer
	http   *http.Client
	store  credential.Store
	opener devicelogin.Opener
	sleep  func(ctx context.Context, d time.Duration) error
	format string // text | json
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "CLI del servicio todo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			if c.format != "text" && c.format != "json" {
				return fmt.Errorf("--out debe ser text|json")
			}
			return c.openStore()
		},
	}
	root.PersistentFlags().StringVar(&c.format, "out", "text", "Formato de salida: json|text")

	root.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Inicia sesión con el device flow",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.cfg.Validate(); err != nil {
					return err
				}
				res, err := c.manager().Login(cmd.Context())
				if err != nil {
					return fmt.Errorf("login %s: %w", res.State, err)
				}
				fmt.Fprintln(c.out, "Logged in.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Borra las credenciales guardadas",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				if err := credential.NewManager(c.store, nil).Logout(); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Logged out.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "token",
			Short: "Imprime un access token vigente (refresca si venció)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tok, err := c.accessToken(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, tok)
				return nil
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Muestra el usuario según el servicio todo",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tok, err := c.accessToken(cmd.Context())
				if err != nil {
					return err
				}
				return c.whoami(cmd.Context(), tok)
			},
		},
	)
	return root
}

func (c *cli) openStore() error {
	if c.store != nil {
		return nil
	}
	switch c.cfg.CredentialBackend {
	case "keyring":
		c.store = credential.NewKeyringStore("", "default")
	default:
		path := c.cfg.CredentialsFile
		if path == "" {
			p, err := credential.DefaultFilePath()
			if err != nil {
				return err
			}
			path = p
		}
		c.store = credential.NewFileStore(path)
	}
	return nil
}

func (c *cli) manager() *credential.Manager {
	client := oauth.NewClient(c.cfg.Domain, c.cfg.ClientID, c.http)
	opts := []devicelogin.Option{
		devicelogin.WithPrompter(devicelogin.WriterPrompter{W: c.out}),
		devicelogin.WithLogger(logger.Named("login")),
	}
	if c.opener != nil {
		opts = append(opts, devicelogin.WithOpener(c.opener))
	}
	if c.sleep != nil {
		opts = append(opts, devicelogin.WithSleep(c.sleep))
	}
	flow := devicelogin.New(client, c.cfg.Audience, c.cfg.Scope, opts...)
	return credential.NewManager(c.store, client,
		credential.WithLoginFlow(flow),
		credential.WithLogger(logger.Named("credential")))
}

func (c *cli) accessToken(ctx context.Context) (string, error) {
	if err := c.cfg.Validate(); err != nil {
		return "", err
	}
	tok, ok, err := c.manager().EnsureAccessToken(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNotLoggedIn
	}
	return tok, nil
}

type whoamiResponse struct {
	UserID     string `json:"user_id"`
	TenantID   string `json:"tenant_id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

func (c *cli) whoami(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TodoURL+"/v1/userinfo", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("whoami fallo: status=%d body=%s", resp.StatusCode, string(body))
	}

	var w whoamiResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return fmt.Errorf("whoami: decode: %w", err)
	}
	if c.format == "json" {
		p, _ := json.MarshalIndent(w, "", "  ")
		fmt.Fprintln(c.out, string(p))
		return nil
	}
	fmt.Fprintf(c.out, "user:     %s\ntenant:   %s\nexternal: %s\n", w.UserID, w.TenantID, w.ExternalID)
	if w.Name != "" {
		fmt.Fprintf(c.out, "name:     %s\n", w.Name)
	}
	if w.Email != "" {
		fmt.Fprintf(c.out, "email:    %s\n", w.Email)
	}
	return nil
}
