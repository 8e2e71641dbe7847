// Package idp builds the URLs of the external identity provider endpoints.
package idp

import "strings"

const (
	jwksPath       = "/.well-known/jwks.json"
	userInfoPath   = "/userinfo"
	deviceCodePath = "/oauth/device/code"
	tokenPath      = "/oauth/token"
)

// BaseURL normalizes an identity domain into a base URL without a trailing
// slash. A bare host ("tenant.eu.auth0.com") is served over https.
func BaseURL(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimRight(d, "/")
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
		d = "https://" + d
	}
	return d
}

func JWKSURL(domain string) string       { return BaseURL(domain) + jwksPath }
func UserInfoURL(domain string) string   { return BaseURL(domain) + userInfoPath }
func DeviceCodeURL(domain string) string { return BaseURL(domain) + deviceCodePath }
func TokenURL(domain string) string      { return BaseURL(domain) + tokenPath }
