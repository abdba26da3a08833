package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// Serve exposes the live mirror over HTTP until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	live := filepath.Join(a.config.Root, filepath.FromSlash(a.model.Deploy.LiveDir))
	if !fsutil.IsDir(live) {
		logger.Warn("Live directory does not exist yet, run deploy first.", "dir", live)
	}

	if err := a.startHealthCheckServer(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(live)))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.Port))
	if err != nil {
		_ = shutdownServer(ctx, "health", a.healthServer)
		return fmt.Errorf("serve live directory: %w", err)
	}
	a.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	a.liveAddr.Store(ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 Serving live directory", "dir", live, "address", fmt.Sprintf("http://%s/", ln.Addr()))
		errCh <- a.httpServer.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	return errors.Join(
		serveErr,
		shutdownServer(ctx, "live", a.httpServer),
		shutdownServer(ctx, "health", a.healthServer),
	)
}

// LiveAddr is the address the mirror listens on, once Serve has started.
func (a *App) LiveAddr() string {
	addr, _ := a.liveAddr.Load().(string)
	return addr
}

// HealthAddr is the address of the health check server, if running.
func (a *App) HealthAddr() string {
	addr, _ := a.healthAddr.Load().(string)
	return addr
}
