package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/deploy"
	"github.com/specialistvlad/plume/internal/liveindex"
	"github.com/specialistvlad/plume/internal/notify"
)

// Deploy refreshes the live mirror. A report with copy errors is returned
// together with ErrDeployIncomplete.
func (a *App) Deploy(ctx context.Context) (*deploy.Report, error) {
	profile, err := a.deployProfile()
	if err != nil {
		return nil, err
	}
	ctx, err = a.withLogFile(ctx, a.model.Deploy.LogFile)
	if err != nil {
		return nil, err
	}
	mode := deploy.ModeSmart
	if a.config.Full {
		mode = deploy.ModeFull
	}
	return a.deploy(ctx, profile, mode)
}

func (a *App) deploy(ctx context.Context, profile *config.Profile, mode deploy.Mode) (*deploy.Report, error) {
	logger := ctxlog.FromContext(ctx)
	settings := a.model.Deploy

	d := deploy.New(a.config.Root, settings, profile,
		deploy.WithWorkers(a.config.WorkerCount),
		deploy.WithIndexGenerator(liveindex.New(a.config.Root, settings, profile)),
	)
	report, err := d.Deploy(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", profile.Name, err)
	}
	report.RunID = a.runID

	a.metrics.ObserveDeploy(report)
	a.writeMetrics(ctx)

	if a.config.ReportPath != "" {
		if err := report.WriteYAML(a.config.ReportPath); err != nil {
			logger.Warn("Failed to write deploy report.", "path", a.config.ReportPath, "error", err)
		} else {
			logger.Info("Deploy report written.", "path", a.config.ReportPath)
		}
	}

	if len(report.Copied) > 0 || report.IndexGenerated {
		a.notify(ctx, report)
	}

	if !report.Success() {
		return report, fmt.Errorf("%w: %d error(s)", ErrDeployIncomplete, len(report.Errors))
	}
	return report, nil
}

// notify tells the reload server about a deployment. Failures are logged
// only: the files are already live.
func (a *App) notify(ctx context.Context, report *deploy.Report) {
	if a.model.Notify == nil {
		return
	}
	payload := map[string]any{
		"run_id":  a.runID,
		"profile": report.Profile,
		"mode":    string(report.Mode),
		"copied":  report.Copied,
	}
	if err := notify.New(a.model.Notify).Notify(ctx, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Reload notification failed.", "error", err)
	}
}

// Index regenerates the live index page without copying files.
func (a *App) Index(ctx context.Context) error {
	profile, err := a.deployProfile()
	if err != nil {
		return err
	}
	settings := a.model.Deploy
	plan, err := deploy.NewPlanner(a.config.Root, settings, profile).Plan(ctx)
	if err != nil {
		return fmt.Errorf("plan deployment: %w", err)
	}
	return liveindex.New(a.config.Root, settings, profile).Generate(ctx, plan)
}
