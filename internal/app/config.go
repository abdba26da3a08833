package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Root        string   // project directory holding css/, js/, html/
	ConfigPaths []string // hcl files or directories; empty uses the embedded defaults
	Profile     string   // empty selects the configured default

	LogFormat   string
	LogLevel    string
	WorkerCount int

	Output      string // build: bundle file name or path
	Full        bool   // deploy: wipe and copy everything
	ReportPath  string // deploy: YAML summary destination
	MetricsPath string // Prometheus textfile destination

	DeployOnChange  bool // watch: smart-deploy after each rebuild
	Port            int  // serve: port of the live mirror
	HealthcheckPort int  // serve: 0 disables the health check server
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("Root is a required configuration field and cannot be empty")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("invalid workers %d: must be at least 1", cfg.WorkerCount)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}
