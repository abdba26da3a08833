package deploy

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/specialistvlad/plume/internal/bundle"
	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// Kind classifies a planned file.
type Kind string

const (
	KindAsset Kind = "asset"
	KindCSS   Kind = "css"
	KindJS    Kind = "js"
	KindPage  Kind = "page"
)

// Item is one file of the live mirror.
type Item struct {
	// Source is slash-separated and relative to the project root.
	Source string
	// Dest is slash-separated and relative to the live directory.
	Dest string
	Kind Kind
}

// Planner computes which files make up the live mirror and where each lands.
type Planner struct {
	root     string
	settings *config.Deploy
	profile  *config.Profile
}

// NewPlanner creates a planner for the project rooted at root.
func NewPlanner(root string, settings *config.Deploy, profile *config.Profile) *Planner {
	return &Planner{root: root, settings: settings, profile: profile}
}

// Plan lists the files to mirror in deployment order, without duplicates.
// Listed files that do not exist are kept so the deployer can report them.
func (p *Planner) Plan(ctx context.Context) ([]Item, error) {
	var items []Item
	seen := make(map[string]struct{})
	add := func(src string, kind Kind) {
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		items = append(items, Item{Source: src, Dest: p.DestPath(src), Kind: kind})
	}

	for _, dir := range p.settings.AssetDirs {
		files, err := fsutil.ListFiles(p.root, dir)
		if err != nil {
			return nil, fmt.Errorf("list asset directory %s: %w", dir, err)
		}
		for _, f := range files {
			add(f, KindAsset)
		}
	}

	collector := bundle.NewCollector(p.root, p.profile,
		bundle.WithExtraJS(path.Join(p.profile.JSDir, "**", "*.js")),
		bundle.WithSkipDirs("demo"),
	)

	css, _, err := collector.CSSSections(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range css {
		add(s.Path, KindCSS)
	}

	js, _, err := collector.JSSections(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range js {
		add(s.Path, KindJS)
	}

	if p.settings.LandingPage != "" {
		add(p.settings.LandingPage, KindPage)
	}
	return items, nil
}

// DestPath maps a source path to its place in the live directory:
// stylesheets are flattened into css/, scripts live under js/, the landing
// page becomes index.html and everything else keeps its path.
func (p *Planner) DestPath(src string) string {
	for _, dir := range p.settings.AssetDirs {
		if strings.HasPrefix(src, dir+"/") {
			return src
		}
	}
	switch {
	case src == p.settings.LandingPage:
		return "index.html"
	case strings.HasSuffix(src, ".css"):
		return path.Join("css", path.Base(src))
	case strings.HasSuffix(src, ".js"):
		if strings.HasPrefix(src, p.profile.JSDir+"/") {
			return path.Join("js", strings.TrimPrefix(src, p.profile.JSDir+"/"))
		}
		return path.Join("js", src)
	default:
		return src
	}
}
