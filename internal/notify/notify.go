// Package notify tells a socket.io server that the live mirror changed, so
// connected browsers can reload.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Notifier emits one event per call.
type Notifier struct {
	cfg *config.Notify
}

// New returns a notifier for cfg.
func New(cfg *config.Notify) *Notifier {
	return &Notifier{cfg: cfg}
}

// Notify connects, emits the configured event with payload and disconnects.
// It returns once the server acknowledged the event, or when the configured
// timeout expires.
func (n *Notifier) Notify(ctx context.Context, payload map[string]any) error {
	logger := ctxlog.FromContext(ctx).With("url", n.cfg.URL, "namespace", n.cfg.Namespace, "event", n.cfg.Event)
	logger.Debug("Notifier started.")
	defer logger.Debug("Notifier finished.")

	parsed, err := url.Parse(n.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notify URL %q needs a scheme and a host", n.cfg.URL)
	}

	opCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	var connected atomic.Bool
	done := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	opts := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(n.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		io.Disconnect()
	}()

	// The event is acknowledged by the server; disconnecting before that
	// would drop the still-buffered packet.
	var emitOnce sync.Once
	io.On(types.EventName("connect"), func(...any) {
		connected.Store(true)
		logger.Debug("Connected.", "sid", io.Id())
		emitOnce.Do(func() {
			io.Timeout(n.cfg.Timeout).EmitWithAck(n.cfg.Event, payload)(func(_ []any, err error) {
				if err != nil {
					err = fmt.Errorf("no acknowledgement for %q: %w", n.cfg.Event, err)
				}
				select {
				case done <- err:
				default:
				}
			})
		})
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case done <- err:
		default:
		}
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if connected.Load() {
			return fmt.Errorf("timed out waiting for %q acknowledgement", n.cfg.Event)
		}
		return errors.New("timed out while waiting for initial connection")
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify %s: %w", n.cfg.URL, err)
		}
		logger.Info("📣 Reload event acknowledged.")
		return nil
	}
}
