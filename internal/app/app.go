package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
	"github.com/specialistvlad/plume/internal/metrics"
)

// Commands understood by Run.
const (
	CommandBuild    = "build"
	CommandDeploy   = "deploy"
	CommandIndex    = "index"
	CommandWatch    = "watch"
	CommandServe    = "serve"
	CommandProfiles = "profiles"
)

// ProjectConfigFile is loaded from the project root when no config path is
// given. Without it the embedded defaults apply.
const ProjectConfigFile = "plume.hcl"

// ErrDeployIncomplete is returned when a deployment finished but some files
// could not be copied.
var ErrDeployIncomplete = errors.New("deployment finished with errors")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	runID   string
	metrics *metrics.Recorder
	closers []io.Closer

	httpServer   *http.Server
	healthServer *http.Server
	liveAddr     atomic.Value // string, set once the mirror is listening
	healthAddr   atomic.Value
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	paths := appConfig.ConfigPaths
	if len(paths) == 0 {
		if p := filepath.Join(appConfig.Root, ProjectConfigFile); fsutil.Exists(p) {
			paths = []string{p}
		}
	}
	model, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(model.Sources) == 0 {
		logger.Debug("Using embedded default configuration.")
	} else {
		logger.Debug("Configuration loaded.", "sources", model.Sources)
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		model:   model,
		runID:   runID,
		metrics: metrics.New(),
	}, nil
}

// Run executes command.
func (a *App) Run(ctx context.Context, command string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", command)
	defer a.logger.Debug("App.Run method finished.", "command", command)

	switch command {
	case CommandBuild:
		_, err := a.Build(ctx)
		return err
	case CommandDeploy:
		_, err := a.Deploy(ctx)
		return err
	case CommandIndex:
		return a.Index(ctx)
	case CommandWatch:
		return a.Watch(ctx)
	case CommandServe:
		return a.Serve(ctx)
	case CommandProfiles:
		return a.Profiles()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// Close releases the log files opened during the run.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Model returns the loaded configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// buildProfile is the profile selected on the command line or the default.
func (a *App) buildProfile() (*config.Profile, error) {
	return a.model.Profile(a.config.Profile)
}

// deployProfile prefers the command line over the deploy block.
func (a *App) deployProfile() (*config.Profile, error) {
	if a.config.Profile != "" {
		return a.model.Profile(a.config.Profile)
	}
	return a.model.Profile(a.model.Deploy.Profile)
}

func (a *App) writeMetrics(ctx context.Context) {
	if a.config.MetricsPath == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.config.MetricsPath); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to write metrics.", "path", a.config.MetricsPath, "error", err)
	}
}
