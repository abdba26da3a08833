// Package liveindex writes the page that loads the live mirror's files one by
// one, as opposed to the single-file bundle.
package liveindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plume/internal/bundle"
	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/deploy"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// Generator renders the live index page.
type Generator struct {
	root     string
	profile  *config.Profile
	settings *config.Deploy
}

// New creates a generator for the project rooted at root.
func New(root string, settings *config.Deploy, profile *config.Profile) *Generator {
	return &Generator{root: root, profile: profile, settings: settings}
}

// Path is where the page is written.
func (g *Generator) Path() string {
	return filepath.Join(g.root, filepath.FromSlash(g.settings.LiveDir), filepath.FromSlash(g.settings.IndexOutput))
}

// Generate writes the index for plan. Stylesheets and scripts whose source
// does not exist are left out so the page only references deployed files.
func (g *Generator) Generate(ctx context.Context, plan []deploy.Item) error {
	logger := ctxlog.FromContext(ctx)

	page, err := bundle.LoadPage(ctx, filepath.Join(g.root, filepath.FromSlash(g.profile.HTMLDir)))
	if err != nil {
		return err
	}
	page.Body = bundle.StripMenu(page.Body, g.profile.StripMenu)

	var links, scripts []string
	for _, item := range plan {
		if item.Kind != deploy.KindCSS && item.Kind != deploy.KindJS {
			continue
		}
		if !fsutil.Exists(filepath.Join(g.root, filepath.FromSlash(item.Source))) {
			continue
		}
		if item.Kind == deploy.KindCSS {
			links = append(links, fmt.Sprintf(`<link rel="stylesheet" href="./%s">`, item.Dest))
		} else {
			scripts = append(scripts, fmt.Sprintf(`<script src="./%s"></script>`, item.Dest))
		}
	}

	html := Render(page, links, scripts)
	out := g.Path()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create live directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write live index: %w", err)
	}
	logger.Info("Live index generated.", "path", out, "stylesheets", len(links), "scripts", len(scripts))
	return nil
}

// Render lays out the page around the generated tags.
func Render(page bundle.Page, links, scripts []string) string {
	return page.Head + "\n" +
		"    <!-- Generated CSS Links -->\n" +
		"    " + strings.Join(links, "\n") + "\n" +
		"</head>\n" +
		page.Body + "\n" +
		"    <!-- Generated JS Scripts -->\n" +
		"    " + strings.Join(scripts, "\n") + "\n" +
		page.Footer
}
