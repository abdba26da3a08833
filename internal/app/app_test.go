package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/plume/internal/hcl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectHCL = `
default_profile = "mini"

profile "mini" {
  description = "Test profile"
  css_order   = ["base.css"]
  js_order    = ["core.js", "gone.js"]
  exclude     = ["thriller"]
  strip_menu  = ["thriller"]
}

deploy {
  asset_dirs = ["doc"]
}
`

// assertKeyOncePerRecord fails when a text-handler record repeats key.
func assertKeyOncePerRecord(t *testing.T, logs, key string) {
	t.Helper()
	for _, line := range strings.Split(logs, "\n") {
		assert.LessOrEqual(t, strings.Count(line, " "+key), 1, "duplicate %q in %q", key, line)
	}
}

// project lays out a minimal frontend with its plume.hcl.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	WriteProjectFile(t, root, "plume.hcl", projectHCL)
	WriteProjectFile(t, root, "css/base.css", "body{}")
	WriteProjectFile(t, root, "js/core.js", "var core = 1;")
	WriteProjectFile(t, root, "js/extra.js", "var extra = 1;")
	WriteProjectFile(t, root, "js/thriller.js", "var thriller = 1;")
	WriteProjectFile(t, root, "html/head.html", "<html><head>")
	WriteProjectFile(t, root, "html/body.html", `<body><button id="header-tab-thriller">T</button>`)
	WriteProjectFile(t, root, "html/footer.html", "</body></html>")
	WriteProjectFile(t, root, "doc/guide.md", "# guide")
	WriteProjectFile(t, root, "landing.html", "<h1>landing</h1>")
	return root
}

func newTestApp(t *testing.T, cfg *Config) (*App, *SafeBuffer) {
	t.Helper()
	if len(cfg.ConfigPaths) == 0 && cfg.Root != "" {
		cfg.ConfigPaths = []string{filepath.Join(cfg.Root, "plume.hcl")}
	}
	return SetupAppTest(t, cfg, hcl.NewLoader())
}

func TestNewConfig(t *testing.T) {
	valid := Config{Root: ".", LogFormat: "text", LogLevel: "info", WorkerCount: 1}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing root", mutate: func(c *Config) { c.Root = "" }, wantErr: "Root"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log-format"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log-level"},
		{name: "no workers", mutate: func(c *Config) { c.WorkerCount = 0 }, wantErr: "workers"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, cfg, *got)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewAppFailsOnBadConfig(t *testing.T) {
	root := t.TempDir()
	WriteProjectFile(t, root, "plume.hcl", `profile "x" {`)

	_, err := NewApp(io.Discard, &Config{Root: root, ConfigPaths: []string{root}, LogFormat: "text", LogLevel: "info"}, hcl.NewLoader())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestBuild(t *testing.T) {
	root := project(t)
	a, logs := newTestApp(t, &Config{Root: root, Output: "out.html", MetricsPath: filepath.Join(root, "metrics", "plume.prom")})

	require.NoError(t, a.Run(context.Background(), CommandBuild))

	data, err := os.ReadFile(filepath.Join(root, "build", "out.html"))
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "// ========== core.js ==========\nvar core = 1;")
	assert.Contains(t, html, "// ========== extra.js ==========")
	assert.NotContains(t, strings.ToLower(html), "thriller")

	logFile, err := os.ReadFile(filepath.Join(root, "build.mini.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logFile), "Bundle written.")
	assert.Contains(t, string(logFile), "run_id=")
	assert.Contains(t, logs.String(), "Listed script missing.")
	assertKeyOncePerRecord(t, logs.String(), "profile=")

	prom, err := os.ReadFile(filepath.Join(root, "metrics", "plume.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `plume_build_files{kind="js",profile="mini",status="missing"} 1`)
}

func TestBuildUnknownProfile(t *testing.T) {
	root := project(t)
	a, _ := newTestApp(t, &Config{Root: root, Profile: "nope"})

	err := a.Run(context.Background(), CommandBuild)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mini")
}

func TestDeploy(t *testing.T) {
	root := project(t)
	reportPath := filepath.Join(root, "reports", "deploy.yaml")
	a, logs := newTestApp(t, &Config{Root: root, ReportPath: reportPath})

	report, err := a.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.runID, report.RunID)
	assert.ElementsMatch(t, []string{"doc/guide.md", "css/base.css", "js/core.js", "js/extra.js", "index.html"}, report.Copied)
	assert.Equal(t, []string{"js/gone.js"}, report.Missing)

	index, err := os.ReadFile(filepath.Join(root, "live", "app.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<link rel="stylesheet" href="./css/base.css">`)
	assert.Contains(t, string(index), `<script src="./js/core.js"></script>`)
	assert.NotContains(t, string(index), "gone.js")

	yml, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(yml), "mode: smart")
	assert.FileExists(t, filepath.Join(root, "deploy-smart.log"))
	assert.Contains(t, logs.String(), "mode=smart")
	assertKeyOncePerRecord(t, logs.String(), "mode=")
}

func TestDeployIncomplete(t *testing.T) {
	root := project(t)
	// A directory where a file should go makes the copy fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "live", "js", "core.js"), 0o755))

	a, _ := newTestApp(t, &Config{Root: root})
	report, err := a.Deploy(context.Background())
	require.ErrorIs(t, err, ErrDeployIncomplete)
	require.NotNil(t, report)
	assert.Len(t, report.Errors, 1)
}

func TestDeployFull(t *testing.T) {
	root := project(t)
	WriteProjectFile(t, root, "live/stale.txt", "old")

	a, _ := newTestApp(t, &Config{Root: root, Full: true})
	report, err := a.Deploy(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "live", "stale.txt"))
	assert.True(t, report.IndexGenerated)
	assert.Positive(t, report.LiveBytes)
}

func TestIndex(t *testing.T) {
	root := project(t)
	a, _ := newTestApp(t, &Config{Root: root})

	require.NoError(t, a.Run(context.Background(), CommandIndex))
	data, err := os.ReadFile(filepath.Join(root, "live", "app.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!-- Generated JS Scripts -->")
	assert.NoFileExists(t, filepath.Join(root, "live", "js", "core.js"))
}

func TestProfilesWithEmbeddedDefaults(t *testing.T) {
	out := &SafeBuffer{}
	a, err := NewApp(out, &Config{Root: t.TempDir(), LogFormat: "text", LogLevel: "error", WorkerCount: 1}, hcl.NewLoader())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), CommandProfiles))
	assert.Contains(t, out.String(), "* light")
	assert.Contains(t, out.String(), "  full")
	assert.Contains(t, out.String(), "  test")
}

func TestRunUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, &Config{Root: project(t)})
	require.Error(t, a.Run(context.Background(), "publish"))
}

func TestHealthHandler(t *testing.T) {
	a, _ := newTestApp(t, &Config{Root: project(t)})

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func localURL(t *testing.T, addr, path string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return "http://127.0.0.1:" + port + path
}

func TestServe(t *testing.T) {
	root := project(t)
	WriteProjectFile(t, root, "live/index.html", "live page")

	a, _ := newTestApp(t, &Config{Root: root})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, CommandServe) }()

	require.Eventually(t, func() bool { return a.LiveAddr() != "" }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(localURL(t, a.LiveAddr(), "/index.html"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "live page", string(body))
	assert.Empty(t, a.HealthAddr(), "health server is disabled by default")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root := project(t)
	a, _ := newTestApp(t, &Config{Root: root, DeployOnChange: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, CommandWatch) }()

	out := filepath.Join(root, "build", "plume-mini.html")
	contains := func(path, s string) func() bool {
		return func() bool {
			data, err := os.ReadFile(path)
			return err == nil && strings.Contains(string(data), s)
		}
	}
	require.Eventually(t, contains(out, "var core = 1;"), 5*time.Second, 20*time.Millisecond)

	WriteProjectFile(t, root, "js/core.js", "var core = 2;")
	require.Eventually(t, contains(out, "var core = 2;"), 10*time.Second, 20*time.Millisecond)
	require.Eventually(t, contains(filepath.Join(root, "live", "js", "core.js"), "var core = 2;"), 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCloseJoinsErrors(t *testing.T) {
	a := &App{closers: []io.Closer{failingCloser{}}}
	err := a.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errClose))
	assert.NoError(t, a.Close())
}

var errClose = errors.New("close failed")

type failingCloser struct{}

func (failingCloser) Close() error { return errClose }
