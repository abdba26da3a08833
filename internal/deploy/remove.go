package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/plume/internal/ctxlog"
)

// removeAllRetry removes dir, retrying up to attempts times with delay
// between tries. Files held open by a browser or editor make the first
// attempt fail on some platforms.
func removeAllRetry(ctx context.Context, dir string, attempts int, delay time.Duration, removeAll func(string) error) error {
	logger := ctxlog.FromContext(ctx)
	attempts = max(attempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = removeAll(dir); err == nil {
			logger.Debug("Live directory removed.", "dir", dir, "attempt", attempt)
			return nil
		}
		logger.Warn("Failed to remove live directory.", "dir", dir, "attempt", attempt, "of", attempts, "error", err)
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("remove %s after %d attempts: %w", dir, attempts, err)
}
