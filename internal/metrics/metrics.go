// Package metrics records build and deploy outcomes as Prometheus gauges and
// writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specialistvlad/plume/internal/bundle"
	"github.com/specialistvlad/plume/internal/deploy"
)

const namespace = "plume"

// Recorder owns a private registry so repeated runs in one process never
// collide with the global one.
type Recorder struct {
	reg *prometheus.Registry

	buildDuration  *prometheus.GaugeVec
	bundleBytes    *prometheus.GaugeVec
	bundleFiles    *prometheus.GaugeVec
	deployDuration *prometheus.GaugeVec
	deployFiles    *prometheus.GaugeVec
	lastSuccess    *prometheus.GaugeVec
}

// New creates a recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		buildDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "build", Name: "duration_seconds",
			Help: "Wall time of the last build.",
		}, []string{"profile"}),
		bundleBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "build", Name: "bundle_bytes",
			Help: "Size of the last bundle written.",
		}, []string{"profile"}),
		bundleFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "build", Name: "files",
			Help: "Files seen by the last build, by kind and status.",
		}, []string{"profile", "kind", "status"}),
		deployDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "deploy", Name: "duration_seconds",
			Help: "Wall time of the last deployment.",
		}, []string{"mode"}),
		deployFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "deploy", Name: "files",
			Help: "Files handled by the last deployment, by outcome.",
		}, []string{"mode", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful run, by command.",
		}, []string{"command"}),
	}
	r.reg.MustRegister(r.buildDuration, r.bundleBytes, r.bundleFiles, r.deployDuration, r.deployFiles, r.lastSuccess)
	return r
}

// ObserveBuild records a finished build.
func (r *Recorder) ObserveBuild(res *bundle.Result) {
	r.buildDuration.WithLabelValues(res.Profile).Set(res.Duration.Seconds())
	r.bundleBytes.WithLabelValues(res.Profile).Set(float64(res.Bytes))
	for kind, s := range map[string]bundle.Stats{"css": res.CSS, "js": res.JS} {
		r.bundleFiles.WithLabelValues(res.Profile, kind, "found").Set(float64(s.Found))
		r.bundleFiles.WithLabelValues(res.Profile, kind, "extra").Set(float64(len(s.Extra)))
		r.bundleFiles.WithLabelValues(res.Profile, kind, "missing").Set(float64(len(s.Missing)))
		r.bundleFiles.WithLabelValues(res.Profile, kind, "excluded").Set(float64(len(s.Excluded)))
	}
	r.lastSuccess.WithLabelValues("build").Set(float64(time.Now().Unix()))
}

// ObserveDeploy records a deployment. The success timestamp only moves when
// the report has no errors.
func (r *Recorder) ObserveDeploy(rep *deploy.Report) {
	mode := string(rep.Mode)
	r.deployDuration.WithLabelValues(mode).Set(rep.Duration.Seconds())
	r.deployFiles.WithLabelValues(mode, "copied").Set(float64(len(rep.Copied)))
	r.deployFiles.WithLabelValues(mode, "skipped").Set(float64(rep.Skipped))
	r.deployFiles.WithLabelValues(mode, "missing").Set(float64(len(rep.Missing)))
	r.deployFiles.WithLabelValues(mode, "error").Set(float64(len(rep.Errors)))
	if rep.Success() {
		r.lastSuccess.WithLabelValues("deploy").Set(float64(time.Now().Unix()))
	}
}

// WriteTextfile atomically writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
