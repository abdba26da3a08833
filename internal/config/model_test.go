package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		kind     EntryKind
		dir      string
		entry    string
		expected Entry
	}{
		{"bare css name", CSSEntry, "css", "01.variables.css", Entry{Path: "css/01.variables.css", Label: "01.variables.css"}},
		{"vendor css via parent", CSSEntry, "css", "../vendor/driver.css", Entry{Path: "vendor/driver.css", Label: "vendor/driver.css"}},
		{"root relative css", CSSEntry, "css", "css/map.css", Entry{Path: "css/map.css", Label: "css/map.css"}},
		{"css under js dir", CSSEntry, "css", "js/widget/widget.css", Entry{Path: "js/widget/widget.css", Label: "js/widget/widget.css"}},
		{"nested css stays in css dir", CSSEntry, "css", "modules/board.css", Entry{Path: "css/modules/board.css", Label: "modules/board.css"}},
		{"vendor prefix is not root relative for css", CSSEntry, "css", "vendor/x.css", Entry{Path: "css/vendor/x.css", Label: "vendor/x.css"}},
		{"bare js name", JSEntry, "js", "04.init.js", Entry{Path: "js/04.init.js", Label: "04.init.js"}},
		{"vendor js", JSEntry, "js", "vendor/idb.js", Entry{Path: "vendor/idb.js", Label: "vendor/idb.js"}},
		{"legacy refactor dir", JSEntry, "js", "js-refactor/06.structure.model.js", Entry{Path: "js-refactor/06.structure.model.js", Label: "js-refactor/06.structure.model.js"}},
		{"nested js stays in js dir", JSEntry, "js", "localization/locales/fr.js", Entry{Path: "js/localization/locales/fr.js", Label: "localization/locales/fr.js"}},
		{"custom js dir", JSEntry, "scripts", "scripts/app.js", Entry{Path: "scripts/app.js", Label: "scripts/app.js"}},
		{"backslashes", JSEntry, "js", "js\\tension\\tension.model.js", Entry{Path: "js/tension/tension.model.js", Label: "js/tension/tension.model.js"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.expected, Resolve(tc.kind, tc.dir, tc.entry)); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfileEntries(t *testing.T) {
	p := &Profile{
		CSSDir:    "css",
		JSDir:     "js",
		CSSOrder:  []string{"modules/board.css"},
		JSOrder:   []string{"localization/locales/fr.js"},
		ModuleCSS: []string{"css/synonyms.css"},
	}

	assert.Equal(t, []Entry{{Path: "css/modules/board.css", Label: "modules/board.css"}}, p.CSSEntries())
	assert.Equal(t, []Entry{{Path: "js/localization/locales/fr.js", Label: "localization/locales/fr.js"}}, p.JSEntries())
	assert.Equal(t, []Entry{{Path: "css/synonyms.css", Label: "css/synonyms.css"}}, p.ModuleCSSEntries())
}

func TestProfileFilters(t *testing.T) {
	p := &Profile{
		Ignored: []string{"38.tension.js"},
		Exclude: []string{"thriller", "StoryGrid"},
	}

	assert.True(t, p.IsIgnored("38.tension.js"))
	assert.False(t, p.IsIgnored("js/38.tension.js"), "ignored names match file names only")

	assert.True(t, p.IsExcluded("js/46.Thriller-board.js"))
	assert.True(t, p.IsExcluded("css/11.storygrid.css"))
	assert.False(t, p.IsExcluded("thriller/keep.js"), "only the file name is matched")
	assert.False(t, p.IsExcluded("js/01.app.js"))
}

func TestModelProfileLookup(t *testing.T) {
	m := &Model{
		DefaultProfile: "light",
		Profiles: map[string]*Profile{
			"light": {Name: "light"},
			"full":  {Name: "full"},
		},
	}

	p, err := m.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "light", p.Name)

	p, err = m.Profile("full")
	require.NoError(t, err)
	assert.Equal(t, "full", p.Name)

	_, err = m.Profile("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full, light")
}

func TestDefaultSourceIsEmbedded(t *testing.T) {
	src := string(DefaultSource())
	assert.Contains(t, src, `profile "light"`)
	assert.Contains(t, src, "deploy {")
}
