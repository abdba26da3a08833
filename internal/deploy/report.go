package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarises a deployment.
type Report struct {
	RunID     string        `yaml:"run_id,omitempty"`
	Mode      Mode          `yaml:"mode"`
	Profile   string        `yaml:"profile"`
	LiveDir   string        `yaml:"live_dir"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`

	Planned int      `yaml:"planned"`
	Copied  []string `yaml:"copied"`
	Skipped int      `yaml:"skipped"`
	Missing []string `yaml:"missing"`
	Errors  []string `yaml:"errors"`

	IndexGenerated bool `yaml:"index_generated"`
	// LiveFiles and LiveBytes are measured after a full deployment.
	LiveFiles int   `yaml:"live_files,omitempty"`
	LiveBytes int64 `yaml:"live_bytes,omitempty"`

	// Attention lists problems that did not stop the deployment but need a
	// human, such as a live directory that could not be cleared.
	Attention []string `yaml:"attention,omitempty"`
}

// Success reports whether every planned copy went through.
func (r *Report) Success() bool {
	return len(r.Errors) == 0
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// WriteYAML writes the report to path, creating parent directories.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
