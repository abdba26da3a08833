package app

import (
	"context"
	"errors"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/deploy"
	"github.com/specialistvlad/plume/internal/watch"
)

// Watch rebuilds the bundle, and optionally smart-deploys, whenever a source
// file changes. It returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	profile, err := a.buildProfile()
	if err != nil {
		return err
	}

	// A fixed name keeps the browser tab on the same file across rebuilds.
	output := a.config.Output
	if output == "" {
		output = profile.OutputPrefix + ".html"
	}

	w, err := watch.New(a.config.Root, watchedDirs(profile), watch.DefaultDebounce)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	a.rebuild(ctx, profile, output)
	for batch := range w.Changes() {
		logger.Info("🔁 Sources changed, rebuilding.", "count", len(batch), "files", batch)
		a.rebuild(ctx, profile, output)
	}
	logger.Info("Watch stopped.")
	return nil
}

// rebuild runs one watch cycle. Errors are logged so the watch keeps going.
func (a *App) rebuild(ctx context.Context, profile *config.Profile, output string) {
	logger := ctxlog.FromContext(ctx)
	if _, err := a.build(ctx, profile, output); err != nil {
		logger.Error("Rebuild failed.", "error", err)
		return
	}
	if !a.config.DeployOnChange {
		return
	}
	if _, err := a.deploy(ctx, profile, deploy.ModeSmart); err != nil && !errors.Is(err, ErrDeployIncomplete) {
		logger.Error("Deploy failed.", "error", err)
	}
}

func watchedDirs(p *config.Profile) []string {
	return []string{p.CSSDir, p.JSDir, p.HTMLDir, "vendor"}
}
