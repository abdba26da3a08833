package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/textenc"
)

// Page is the head/body/footer template trio.
type Page struct {
	Head   string
	Body   string
	Footer string
}

// LoadPage reads head.html, body.html and footer.html from dir. A missing or
// empty template is logged and left empty.
func LoadPage(ctx context.Context, dir string) (Page, error) {
	logger := ctxlog.FromContext(ctx)
	var page Page
	for _, t := range []struct {
		name string
		dst  *string
	}{
		{"head.html", &page.Head},
		{"body.html", &page.Body},
		{"footer.html", &page.Footer},
	} {
		res, err := textenc.ReadFile(filepath.Join(dir, t.name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Page{}, fmt.Errorf("read template %s: %w", t.name, err)
		}
		if res.Text == "" {
			logger.Error("Template is empty or missing.", "template", t.name)
			continue
		}
		logger.Debug("Template loaded.", "template", t.name, "chars", len([]rune(res.Text)))
		*t.dst = res.Text
	}
	return page, nil
}

// Assemble wraps the style and script blocks in the page templates.
func Assemble(page Page, css, js string) string {
	return page.Head + "\n" +
		"    <style>\n" + css + "\n    </style>\n" +
		"</head>\n" +
		page.Body + "\n" +
		"    <script>\n" + js + "\n    </script>\n" +
		page.Footer
}

// StripMenu removes the header tab, mobile menu button, sidebar list and
// template option of every named feature from the body template.
func StripMenu(body string, features []string) string {
	for _, f := range features {
		if f == "" {
			continue
		}
		q := regexp.QuoteMeta(f)
		for _, re := range []*regexp.Regexp{
			regexp.MustCompile(`(?s)<button[^>]+id="header-tab-` + q + `"[^>]*>.*?</button>`),
			regexp.MustCompile(`(?s)<button[^>]+data-view="` + q + `"[^>]*>.*?</button>`),
			regexp.MustCompile(`(?s)<div[^>]+id="` + q + `List"[^>]*>.*?</div>`),
			regexp.MustCompile(`<option[^>]+value="` + q + `"[^>]*>.*?</option>`),
		} {
			body = re.ReplaceAllString(body, "")
		}
	}
	return body
}
