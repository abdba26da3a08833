package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/plume/internal/bundle"
	"github.com/specialistvlad/plume/internal/deploy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	r := New()
	r.ObserveBuild(&bundle.Result{
		Profile:  "light",
		Bytes:    2048,
		Duration: 250 * time.Millisecond,
		CSS:      bundle.Stats{Found: 18},
		JS:       bundle.Stats{Found: 200, Missing: []string{"a.js", "b.js"}, Extra: []string{"c.js"}},
	})

	assert.Equal(t, 2048.0, testutil.ToFloat64(r.bundleBytes.WithLabelValues("light")))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.buildDuration.WithLabelValues("light")))
	assert.Equal(t, 18.0, testutil.ToFloat64(r.bundleFiles.WithLabelValues("light", "css", "found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.bundleFiles.WithLabelValues("light", "js", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bundleFiles.WithLabelValues("light", "js", "extra")))
	assert.Positive(t, testutil.ToFloat64(r.lastSuccess.WithLabelValues("build")))
}

func TestObserveDeploy(t *testing.T) {
	r := New()
	r.ObserveDeploy(&deploy.Report{
		Mode:    deploy.ModeSmart,
		Copied:  []string{"js/app.js"},
		Skipped: 40,
		Missing: []string{},
		Errors:  []string{"css/x.css: permission denied"},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.deployFiles.WithLabelValues("smart", "copied")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.deployFiles.WithLabelValues("smart", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deployFiles.WithLabelValues("smart", "error")))
	assert.Zero(t, testutil.ToFloat64(r.lastSuccess.WithLabelValues("deploy")), "failed deploys keep the old timestamp")
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveDeploy(&deploy.Report{Mode: deploy.ModeFull, Copied: []string{"a", "b"}})

	path := filepath.Join(t.TempDir(), "textfile", "plume.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `plume_deploy_files{mode="full",outcome="copied"} 2`)
	assert.Contains(t, string(data), "# TYPE plume_last_success_timestamp_seconds gauge")
}
