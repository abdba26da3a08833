package bundle

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
	"github.com/specialistvlad/plume/internal/textenc"
)

// Section is one file of the bundle, in emission order.
type Section struct {
	// Path is slash-separated and relative to the project root.
	Path  string
	Label string
	// Extra marks files found on disk rather than taken from an order list.
	Extra bool
	// Missing marks listed files absent from disk. They are never rendered.
	Missing bool
}

// Stats summarises a collection pass.
type Stats struct {
	Found    int
	Missing  []string
	Extra    []string
	Excluded []string
}

// Option customises a Collector.
type Option func(*Collector)

// WithExtraJS replaces the profile's extra script patterns.
func WithExtraJS(patterns ...string) Option {
	return func(c *Collector) { c.extraJS = patterns }
}

// WithSkipDirs drops extras having one of names as a directory component.
func WithSkipDirs(names ...string) Option {
	return func(c *Collector) { c.skipDirs = names }
}

// WithDecoder sets the decoder used to read sources.
func WithDecoder(d *textenc.Decoder) Option {
	return func(c *Collector) { c.decoder = d }
}

// Collector resolves a profile's order lists against the files on disk and
// renders them into style and script blocks.
type Collector struct {
	root     string
	profile  *config.Profile
	decoder  *textenc.Decoder
	extraJS  []string
	skipDirs []string
}

// NewCollector creates a collector for the project rooted at root.
func NewCollector(root string, profile *config.Profile, opts ...Option) *Collector {
	d, _ := textenc.NewDecoder()
	c := &Collector{
		root:    root,
		profile: profile,
		decoder: d,
		extraJS: profile.ExtraJS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listing answers "is this file already named by an order list", by path or
// by bare file name.
type listing struct {
	paths map[string]struct{}
	names map[string]struct{}
}

func newListing(groups ...[]config.Entry) listing {
	l := listing{paths: make(map[string]struct{}), names: make(map[string]struct{})}
	for _, entries := range groups {
		for _, e := range entries {
			l.paths[e.Path] = struct{}{}
			l.names[path.Base(e.Path)] = struct{}{}
		}
	}
	return l
}

func (l listing) has(rel string) bool {
	if _, ok := l.paths[rel]; ok {
		return true
	}
	_, ok := l.names[path.Base(rel)]
	return ok
}

// sectionList accumulates sections, dropping duplicates and excluded files.
type sectionList struct {
	profile  *config.Profile
	sections []Section
	seen     map[string]struct{}
	stats    Stats
}

func newSectionList(p *config.Profile) *sectionList {
	return &sectionList{profile: p, seen: make(map[string]struct{})}
}

func (l *sectionList) add(s Section) {
	if _, dup := l.seen[s.Path]; dup {
		return
	}
	l.seen[s.Path] = struct{}{}
	if l.profile.IsExcluded(s.Path) {
		l.stats.Excluded = append(l.stats.Excluded, s.Path)
		return
	}
	switch {
	case s.Missing:
		l.stats.Missing = append(l.stats.Missing, s.Label)
	case s.Extra:
		l.stats.Extra = append(l.stats.Extra, s.Label)
	default:
		l.stats.Found++
	}
	l.sections = append(l.sections, s)
}

func (c *Collector) abs(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

func (c *Collector) isFile(rel string) bool {
	info, err := os.Stat(c.abs(rel))
	return err == nil && info.Mode().IsRegular()
}

// CSSSections lists the stylesheets: the order list, then loose files of the
// stylesheet directory, then module stylesheets.
func (c *Collector) CSSSections(ctx context.Context) ([]Section, Stats, error) {
	logger := ctxlog.FromContext(ctx)
	entries := c.profile.CSSEntries()
	listed := newListing(entries)
	list := newSectionList(c.profile)

	for _, e := range entries {
		list.add(Section{Path: e.Path, Label: e.Label, Missing: !c.isFile(e.Path)})
	}

	loose, err := fsutil.Glob(c.root, path.Join(c.profile.CSSDir, "*.css"))
	if err != nil {
		return nil, Stats{}, err
	}
	for _, rel := range loose {
		if listed.has(rel) {
			continue
		}
		list.add(Section{Path: rel, Label: path.Base(rel), Extra: true})
	}

	for _, e := range c.profile.ModuleCSSEntries() {
		if !c.isFile(e.Path) {
			logger.Debug("Module stylesheet not present.", "path", e.Path)
			continue
		}
		list.add(Section{Path: e.Path, Label: e.Label})
	}

	return list.sections, list.stats, nil
}

// JSSections lists the scripts: the order list, then the files matched by the
// extra patterns that no list names and no filter rejects.
func (c *Collector) JSSections(ctx context.Context) ([]Section, Stats, error) {
	logger := ctxlog.FromContext(ctx)
	entries := c.profile.JSEntries()
	listed := newListing(entries)
	list := newSectionList(c.profile)

	for _, e := range entries {
		list.add(Section{Path: e.Path, Label: e.Label, Missing: !c.isFile(e.Path)})
	}

	for _, pattern := range c.extraJS {
		matches, err := fsutil.Glob(c.root, pattern)
		if err != nil {
			return nil, Stats{}, err
		}
		for _, rel := range matches {
			if reason := c.rejectExtraJS(rel, listed); reason != "" {
				logger.Debug("Skipping extra script.", "path", rel, "reason", reason)
				continue
			}
			list.add(Section{Path: rel, Label: c.jsLabel(rel), Extra: true})
		}
	}

	return list.sections, list.stats, nil
}

func (c *Collector) rejectExtraJS(rel string, listed listing) string {
	name := path.Base(rel)
	switch {
	case listed.has(rel):
		return "listed"
	case c.profile.IsIgnored(name):
		return "ignored"
	case c.profile.SkipUnderscore && strings.HasPrefix(name, "_"):
		return "underscore"
	}
	for _, dir := range strings.Split(path.Dir(rel), "/") {
		for _, skip := range c.skipDirs {
			if dir == skip {
				return "skipped directory"
			}
		}
	}
	return ""
}

// jsLabel names an extra script relative to the script directory, keeping
// other roots (such as js-refactor/) visible.
func (c *Collector) jsLabel(rel string) string {
	if trimmed, ok := strings.CutPrefix(rel, c.profile.JSDir+"/"); ok {
		return trimmed
	}
	return rel
}

// Render reads every present section and joins them, each preceded by the
// separator produced by header and followed by a blank line. Unreadable
// files are logged and skipped.
func (c *Collector) Render(ctx context.Context, sections []Section, header func(label string) string) (string, error) {
	logger := ctxlog.FromContext(ctx)
	parts := make([]string, 0, len(sections)*3)

	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.Missing {
			continue
		}
		res, err := c.decoder.ReadFile(c.abs(s.Path))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("File not found, skipping.", "path", s.Path)
			} else {
				logger.Error("Failed to read file, skipping.", "path", s.Path, "error", err)
			}
			continue
		}
		switch {
		case res.Lossy():
			logger.Error("Unknown encoding, read with replacement characters.", "path", s.Path)
		case !res.UTF8():
			logger.Warn("File is not UTF-8.", "path", s.Path, "encoding", res.Encoding)
		}
		parts = append(parts, header(s.Label), res.Text, "")
	}
	return strings.Join(parts, "\n"), nil
}

// CSSHeader is the separator written before each stylesheet.
func CSSHeader(label string) string { return "/* ========== " + label + " ========== */" }

// JSHeader is the separator written before each script.
func JSHeader(label string) string { return "// ========== " + label + " ==========" }

// CollectCSS renders the style block.
func (c *Collector) CollectCSS(ctx context.Context) (string, Stats, error) {
	sections, stats, err := c.CSSSections(ctx)
	if err != nil {
		return "", stats, err
	}
	css, err := c.Render(ctx, sections, CSSHeader)
	return css, stats, err
}

// CollectJS renders the script block.
func (c *Collector) CollectJS(ctx context.Context) (string, Stats, error) {
	sections, stats, err := c.JSSections(ctx)
	if err != nil {
		return "", stats, err
	}
	js, err := c.Render(ctx, sections, JSHeader)
	return js, stats, err
}
