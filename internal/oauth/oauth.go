// Package oauth es el cliente HTTP de los endpoints de device authorization y
// token del IdP (RFC 8628 y refresh_token).
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/idp"
)

const (
	GrantTypeDeviceCode   = "urn:ietf:params:oauth:grant-type:device_code"
	GrantTypeRefreshToken = "refresh_token"

	maxBodyBytes = 1 << 20
)

var (
	// ErrAuthorizationPending: el usuario todavía no aprobó (también slow_down
	// o una respuesta 200 sin access_token).
	ErrAuthorizationPending = errors.New("oauth: authorization pending")
	// ErrAccessDenied: el usuario rechazó la autorización.
	ErrAccessDenied = errors.New("oauth: access denied")
	// ErrExpiredToken: el device code expiró del lado del IdP.
	ErrExpiredToken = errors.New("oauth: device code expired")
)

// ProviderError es un error OAuth devuelto por el IdP.
type ProviderError struct {
	Status      int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("oauth: provider returned status %d", e.Status)
	}
	if e.Description == "" {
		return fmt.Sprintf("oauth: %s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("oauth: %s: %s (status %d)", e.Code, e.Description, e.Status)
}

// TokenPair es la respuesta del token endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// DeviceCode es la respuesta del device authorization endpoint.
type DeviceCode struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval"`
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client habla con {domain}/oauth/device/code y {domain}/oauth/token.
type Client struct {
	http     *http.Client
	domain   string
	clientID string
}

func NewClient(domain, clientID string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: hc, domain: domain, clientID: clientID}
}

func (c *Client) ClientID() string { return c.clientID }

// RequestDeviceCode inicia el flujo de device authorization.
func (c *Client) RequestDeviceCode(ctx context.Context, audience, scope string) (DeviceCode, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	if audience != "" {
		form.Set("audience", audience)
	}
	if scope != "" {
		form.Set("scope", scope)
	}

	status, body, err := c.postForm(ctx, idp.DeviceCodeURL(c.domain), form)
	if err != nil {
		return DeviceCode{}, err
	}
	if status != http.StatusOK {
		return DeviceCode{}, providerError(status, body)
	}
	var dc DeviceCode
	if err := json.Unmarshal(body, &dc); err != nil {
		return DeviceCode{}, fmt.Errorf("oauth: decode device code: %w", err)
	}
	if dc.DeviceCode == "" || dc.UserCode == "" {
		return DeviceCode{}, fmt.Errorf("oauth: device code response missing device_code or user_code")
	}
	return dc, nil
}

// PollDeviceToken hace un intento contra el token endpoint con el device code.
// Devuelve ErrAuthorizationPending mientras el usuario no apruebe.
func (c *Client) PollDeviceToken(ctx context.Context, deviceCode string) (TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", GrantTypeDeviceCode)
	form.Set("device_code", deviceCode)
	form.Set("client_id", c.clientID)

	status, body, err := c.postForm(ctx, idp.TokenURL(c.domain), form)
	if err != nil {
		return TokenPair{}, err
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	switch eb.Error {
	case "":
	case "authorization_pending", "slow_down":
		return TokenPair{}, ErrAuthorizationPending
	case "access_denied":
		return TokenPair{}, ErrAccessDenied
	case "expired_token":
		return TokenPair{}, ErrExpiredToken
	default:
		return TokenPair{}, providerError(status, body)
	}
	if status != http.StatusOK {
		return TokenPair{}, providerError(status, body)
	}

	var tp TokenPair
	if err := json.Unmarshal(body, &tp); err != nil {
		return TokenPair{}, fmt.Errorf("oauth: decode token: %w", err)
	}
	if tp.AccessToken == "" {
		return TokenPair{}, ErrAuthorizationPending
	}
	return tp, nil
}

// Refresh canjea un refresh token por un nuevo par.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", GrantTypeRefreshToken)
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)

	status, body, err := c.postForm(ctx, idp.TokenURL(c.domain), form)
	if err != nil {
		return TokenPair{}, err
	}
	if status != http.StatusOK {
		return TokenPair{}, providerError(status, body)
	}
	var tp TokenPair
	if err := json.Unmarshal(body, &tp); err != nil {
		return TokenPair{}, fmt.Errorf("oauth: decode token: %w", err)
	}
	if tp.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("oauth: refresh response missing access_token")
	}
	return tp, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("oauth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("oauth: POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("oauth: read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func providerError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	return &ProviderError{Status: status, Code: eb.Error, Description: eb.ErrorDescription}
}
