package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// Mode selects how the live directory is refreshed.
type Mode string

const (
	// ModeSmart copies only the files whose content changed.
	ModeSmart Mode = "smart"
	// ModeFull wipes the live directory and copies everything.
	ModeFull Mode = "full"
)

// IndexGenerator writes the live index page from a deployment plan.
type IndexGenerator interface {
	Generate(ctx context.Context, plan []Item) error
}

// Option customises a Deployer.
type Option func(*Deployer)

// WithWorkers bounds the number of files compared concurrently.
func WithWorkers(n int) Option {
	return func(d *Deployer) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithIndexGenerator sets the generator run after files were copied.
func WithIndexGenerator(g IndexGenerator) Option {
	return func(d *Deployer) { d.index = g }
}

// Deployer mirrors a profile's files into the live directory.
type Deployer struct {
	root      string
	profile   string
	settings  *config.Deploy
	planner   *Planner
	index     IndexGenerator
	workers   int
	removeAll func(string) error
	now       func() time.Time
}

// New creates a deployer for the project rooted at root.
func New(root string, settings *config.Deploy, profile *config.Profile, opts ...Option) *Deployer {
	d := &Deployer{
		root:      root,
		profile:   profile.Name,
		settings:  settings,
		planner:   NewPlanner(root, settings, profile),
		workers:   runtime.NumCPU(),
		removeAll: os.RemoveAll,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LiveDir is the absolute path of the live directory.
func (d *Deployer) LiveDir() string {
	return filepath.Join(d.root, filepath.FromSlash(d.settings.LiveDir))
}

// Plan exposes the deployment plan without copying anything.
func (d *Deployer) Plan(ctx context.Context) ([]Item, error) {
	return d.planner.Plan(ctx)
}

type outcome struct {
	missing bool
	change  Change
	err     error
}

// Deploy refreshes the live directory. The returned error is reserved for
// conditions that stop the deployment altogether; per-file failures are
// recorded in the report.
func (d *Deployer) Deploy(ctx context.Context, mode Mode) (*Report, error) {
	ctx = ctxlog.With(ctx, "mode", string(mode))
	logger := ctxlog.FromContext(ctx)

	start := d.now()
	live := d.LiveDir()
	report := &Report{
		Mode:      mode,
		Profile:   d.profile,
		LiveDir:   live,
		StartedAt: start,
		Copied:    []string{},
		Missing:   []string{},
		Errors:    []string{},
	}
	logger.Info("🚚 Deploying to live directory.", "source", d.root, "live", live)

	switch mode {
	case ModeSmart:
		d.removeStrayIndex(ctx, report)
	case ModeFull:
		err := removeAllRetry(ctx, live, d.settings.RemoveRetries, d.settings.RemoveDelay, d.removeAll)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err != nil {
			logger.Error("Live directory could not be cleared, deploying over it.", "error", err)
			report.Attention = append(report.Attention, fmt.Sprintf("live directory not cleared: %v", err))
		}
	default:
		return nil, fmt.Errorf("unknown deploy mode %q", mode)
	}

	if err := os.MkdirAll(live, 0o755); err != nil {
		return nil, fmt.Errorf("create live directory: %w", err)
	}

	plan, err := d.planner.Plan(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan deployment: %w", err)
	}
	report.Planned = len(plan)
	logger.Info("Analysing files.", "count", len(plan), "workers", d.workers)

	outcomes, err := d.classify(ctx, plan, mode)
	if err != nil {
		return nil, err
	}

	// Copies run in plan order so that a later source wins when two land on
	// the same destination.
	for i, item := range plan {
		o := outcomes[i]
		switch {
		case o.missing:
			logger.Warn("Source file missing.", "file", item.Source)
			report.Missing = append(report.Missing, item.Source)
		case o.err != nil:
			logger.Error("Failed to compare file.", "file", item.Source, "error", o.err)
			report.addError("%s: %v", item.Source, o.err)
		case o.change == Unchanged:
			report.Skipped++
		default:
			if err := fsutil.CopyFile(d.src(item), d.dst(item)); err != nil {
				logger.Error("Failed to copy file.", "file", item.Source, "dest", item.Dest, "error", err)
				report.addError("%s -> %s: %v", item.Source, item.Dest, err)
				continue
			}
			logger.Debug("Copied.", "file", item.Source, "dest", item.Dest, "reason", o.change.String())
			report.Copied = append(report.Copied, item.Dest)
		}
	}

	if d.index != nil && d.needsIndex(mode, report) {
		if err := d.index.Generate(ctx, plan); err != nil {
			logger.Error("Failed to generate live index.", "error", err)
			report.addError("index: %v", err)
		} else {
			report.IndexGenerated = true
		}
	}

	if mode == ModeFull {
		files, bytes, err := fsutil.TreeSize(live)
		if err != nil {
			logger.Warn("Could not measure live directory.", "error", err)
		}
		report.LiveFiles, report.LiveBytes = files, bytes
		logger.Info("Live directory size.", "files", files, "bytes", bytes, "mib", fmt.Sprintf("%.2f", float64(bytes)/1024/1024))
	}

	report.Duration = d.now().Sub(start)
	attrs := []any{
		"copied", len(report.Copied),
		"skipped", report.Skipped,
		"missing", len(report.Missing),
		"errors", len(report.Errors),
		"duration", report.Duration,
	}
	if report.Success() {
		logger.Info("✅ Deployment complete.", attrs...)
	} else {
		logger.Error("❌ Deployment finished with errors.", attrs...)
	}
	for _, item := range report.Attention {
		logger.Warn("Needs attention.", "item", item)
	}
	return report, nil
}

// classify compares every planned file on a bounded pool. Results are
// indexed like plan.
func (d *Deployer) classify(ctx context.Context, plan []Item, mode Mode) ([]outcome, error) {
	outcomes := make([]outcome, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, item := range plan {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := d.src(item)
			if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
				outcomes[i] = outcome{missing: true}
				return nil
			}
			if mode == ModeFull {
				outcomes[i] = outcome{change: Created}
				return nil
			}
			change, err := Compare(src, d.dst(item), d.settings.MTimeTolerance, d.settings.TrustMTime)
			outcomes[i] = outcome{change: change, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (d *Deployer) needsIndex(mode Mode, report *Report) bool {
	if mode == ModeFull || len(report.Copied) > 0 {
		return true
	}
	return !fsutil.Exists(filepath.Join(d.LiveDir(), filepath.FromSlash(d.settings.IndexOutput)))
}

// removeStrayIndex deletes an index.html left at the project root, which
// would shadow the landing page when the root is served.
func (d *Deployer) removeStrayIndex(ctx context.Context, report *Report) {
	logger := ctxlog.FromContext(ctx)
	stray := filepath.Join(d.root, "index.html")
	if !fsutil.Exists(stray) {
		return
	}
	if err := os.Remove(stray); err != nil {
		logger.Error("Failed to remove index.html from the project root.", "error", err)
		report.Attention = append(report.Attention, fmt.Sprintf("root index.html not removed: %v", err))
		return
	}
	logger.Info("Removed index.html from the project root.")
}

func (d *Deployer) src(item Item) string {
	return filepath.Join(d.root, filepath.FromSlash(item.Source))
}

func (d *Deployer) dst(item Item) string {
	return filepath.Join(d.LiveDir(), filepath.FromSlash(item.Dest))
}
