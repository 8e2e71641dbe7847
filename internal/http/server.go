package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

// NewServer arma el http.Server con timeouts conservadores.
func NewServer(addr string, handler stdhttp.Handler) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run sirve hasta que ctx se cancela y luego hace shutdown con grace como
// plazo para los requests en curso.
func Run(ctx context.Context, srv *stdhttp.Server, grace time.Duration) error {
	log := logger.From(ctx)
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
