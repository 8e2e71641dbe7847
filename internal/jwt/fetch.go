package jwt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/idp"
	"github.com/dropDatabas3/hellotodo/internal/metrics"
)

// maxJWKSBytes acota el documento aceptado.
const maxJWKSBytes = 1 << 20

// Fetcher obtiene el KeySet vigente de un dominio.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) (*KeySet, error)
}

// HTTPFetcher descarga {domain}/.well-known/jwks.json. Un intento, sin reintentos.
type HTTPFetcher struct {
	client *http.Client
	now    func() time.Time
}

// NewHTTPFetcher crea un fetcher. Con client nil usa uno con timeout de 10s.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{client: client, now: time.Now}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, domain string) (ks *KeySet, err error) {
	start := time.Now()
	defer func() {
		metrics.KeySetFetchLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.KeySetFetches.WithLabelValues("error").Inc()
		} else {
			metrics.KeySetFetches.WithLabelValues("ok").Inc()
		}
	}()

	url := idp.JWKSURL(domain)
	if url == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrFetchFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJWKSBytes))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	ks, err = ParseKeySet(domain, body, f.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return ks, nil
}
