package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/plume/internal/bundle"
	"github.com/specialistvlad/plume/internal/config"
)

// Build writes the bundle of the selected profile.
func (a *App) Build(ctx context.Context) (*bundle.Result, error) {
	profile, err := a.buildProfile()
	if err != nil {
		return nil, err
	}
	ctx, err = a.withLogFile(ctx, profile.LogFile)
	if err != nil {
		return nil, err
	}
	return a.build(ctx, profile, a.config.Output)
}

func (a *App) build(ctx context.Context, profile *config.Profile, output string) (*bundle.Result, error) {
	res, err := bundle.NewBuilder(a.config.Root, profile).Build(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", profile.Name, err)
	}
	a.metrics.ObserveBuild(res)
	a.writeMetrics(ctx)
	return res, nil
}
