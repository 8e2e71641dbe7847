package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/idp"
)

// UserInfo es el perfil que devuelve el IdP para un access token.
type UserInfo struct {
	Subject  string `json:"sub"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// DisplayName devuelve name o, si falta, nickname.
func (u UserInfo) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Nickname
}

// UserInfoFetcher consulta el perfil asociado a un access token.
type UserInfoFetcher interface {
	Fetch(ctx context.Context, accessToken string) (UserInfo, error)
}

// HTTPUserInfoClient llama a GET {domain}/userinfo con el bearer del request.
type HTTPUserInfoClient struct {
	client *http.Client
	url    string
}

func NewHTTPUserInfoClient(domain string, client *http.Client) *HTTPUserInfoClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPUserInfoClient{client: client, url: idp.UserInfoURL(domain)}
}

func (c *HTTPUserInfoClient) Fetch(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return UserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return UserInfo{}, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	var info UserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("userinfo: decode: %w", err)
	}
	return info, nil
}
