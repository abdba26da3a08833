package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// Result describes a finished build.
type Result struct {
	Profile  string
	Path     string
	Bytes    int64
	CSS      Stats
	JS       Stats
	Duration time.Duration
}

// Builder produces the single-file bundle of one profile.
type Builder struct {
	root      string
	profile   *config.Profile
	collector *Collector
	now       func() time.Time
}

// NewBuilder creates a builder for the project rooted at root.
func NewBuilder(root string, profile *config.Profile, opts ...Option) *Builder {
	return &Builder{
		root:      root,
		profile:   profile,
		collector: NewCollector(root, profile, opts...),
		now:       time.Now,
	}
}

// DefaultOutput is the timestamped file name used when no output is given.
func (b *Builder) DefaultOutput() string {
	return b.profile.OutputPrefix + "-" + b.now().Format("2006.01.02.15.04") + ".html"
}

// OutputPath resolves where output is written. Absolute paths are kept,
// paths with a directory part are relative to the root, and bare names go
// to the build directory.
func (b *Builder) OutputPath(output string) string {
	if output == "" {
		output = b.DefaultOutput()
	}
	switch {
	case filepath.IsAbs(output):
		return output
	case strings.ContainsAny(output, `/\`):
		return filepath.Join(b.root, filepath.FromSlash(output))
	default:
		return filepath.Join(b.root, filepath.FromSlash(b.profile.BuildDir), output)
	}
}

// Build assembles the bundle and writes it to output.
func (b *Builder) Build(ctx context.Context, output string) (*Result, error) {
	ctx = ctxlog.With(ctx, "profile", b.profile.Name)
	logger := ctxlog.FromContext(ctx)
	start := b.now()

	logger.Info("🔨 Building bundle.", "root", b.root)
	b.verifyDirs(ctx)

	page, err := LoadPage(ctx, filepath.Join(b.root, filepath.FromSlash(b.profile.HTMLDir)))
	if err != nil {
		return nil, err
	}
	if len(b.profile.StripMenu) > 0 {
		page.Body = StripMenu(page.Body, b.profile.StripMenu)
		logger.Debug("Menu entries stripped.", "features", b.profile.StripMenu)
	}

	css, cssStats, err := b.collector.CollectCSS(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect stylesheets: %w", err)
	}
	logger.Info("Stylesheets collected.", "found", cssStats.Found, "extra", len(cssStats.Extra), "missing", len(cssStats.Missing), "chars", len([]rune(css)))

	js, jsStats, err := b.collector.CollectJS(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect scripts: %w", err)
	}
	logger.Info("Scripts collected.", "found", jsStats.Found, "extra", len(jsStats.Extra), "missing", len(jsStats.Missing), "chars", len([]rune(js)))
	for _, name := range jsStats.Missing {
		logger.Warn("Listed script missing.", "file", name)
	}
	for _, name := range jsStats.Extra {
		logger.Debug("Extra script added.", "file", name)
	}
	if len(cssStats.Excluded)+len(jsStats.Excluded) > 0 {
		logger.Info("Files excluded.", "css", cssStats.Excluded, "js", jsStats.Excluded)
	}

	out := b.OutputPath(output)
	html := Assemble(page, css, js)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}

	res := &Result{
		Profile:  b.profile.Name,
		Path:     out,
		Bytes:    int64(len(html)),
		CSS:      cssStats,
		JS:       jsStats,
		Duration: b.now().Sub(start),
	}
	logger.Info("✅ Bundle written.", "path", out, "bytes", res.Bytes, "duration", res.Duration)
	return res, nil
}

// verifyDirs reports which source directories are present. Missing ones are
// not fatal: the build carries on with whatever exists.
func (b *Builder) verifyDirs(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, dir := range []string{b.profile.CSSDir, b.profile.JSDir, b.profile.HTMLDir} {
		if fsutil.IsDir(filepath.Join(b.root, filepath.FromSlash(dir))) {
			logger.Debug("Source directory present.", "dir", dir)
			continue
		}
		logger.Error("Source directory missing.", "dir", dir)
	}
}
