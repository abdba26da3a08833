package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/plume/internal/app"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// RunFunc executes a validated command.
type RunFunc func(ctx context.Context, command string, cfg *app.Config) error

type globalFlags struct {
	root      string
	config    []string
	profile   string
	logFormat string
	logLevel  string
	workers   int
}

// NewRootCommand builds the command tree. Every command validates its flags
// into an app.Config and hands it to run.
func NewRootCommand(outW io.Writer, run RunFunc) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "plume",
		Short: "Bundle and deploy the Plume frontend",
		Long: `Plume assembles hand-ordered stylesheets and scripts into a single
self-contained HTML file, and mirrors them into a live directory that only
receives the files that actually changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&g.root, "root", "r", ".", "Project directory containing css/, js/ and html/.")
	pf.StringArrayVarP(&g.config, "config", "c", nil, "HCL config file or directory (repeatable). Defaults to the embedded profiles.")
	pf.StringVarP(&g.profile, "profile", "p", "", "Build profile. Defaults to the configured default_profile.")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.IntVar(&g.workers, "workers", 8, "Number of files compared concurrently during deploy.")

	// execute turns flags into a validated config and runs command.
	execute := func(cmd *cobra.Command, command string, fill func(*app.Config)) error {
		cfg := app.Config{
			Root:        g.root,
			ConfigPaths: g.config,
			Profile:     g.profile,
			LogFormat:   strings.ToLower(g.logFormat),
			LogLevel:    strings.ToLower(g.logLevel),
			WorkerCount: g.workers,
		}
		if fill != nil {
			fill(&cfg)
		}
		validated, err := app.NewConfig(cfg)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		return run(cmd.Context(), command, validated)
	}

	var output, buildMetrics string
	build := &cobra.Command{
		Use:   "build",
		Short: "Write the single-file bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandBuild, func(c *app.Config) {
				c.Output = output
				c.MetricsPath = buildMetrics
			})
		},
	}
	build.Flags().StringVarP(&output, "output", "o", "", "Bundle file name or path. Defaults to <output_prefix>-YYYY.MM.DD.HH.MM.html.")
	build.Flags().StringVar(&buildMetrics, "metrics-file", "", "Write Prometheus textfile metrics to this path.")

	var full bool
	var reportPath, deployMetrics string
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Mirror changed files into the live directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandDeploy, func(c *app.Config) {
				c.Full = full
				c.ReportPath = reportPath
				c.MetricsPath = deployMetrics
			})
		},
	}
	deployCmd.Flags().BoolVar(&full, "full", false, "Wipe the live directory and copy everything.")
	deployCmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML summary to this path.")
	deployCmd.Flags().StringVar(&deployMetrics, "metrics-file", "", "Write Prometheus textfile metrics to this path.")

	index := &cobra.Command{
		Use:   "index",
		Short: "Regenerate the live index page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandIndex, nil)
		},
	}

	var deployOnChange bool
	var watchOutput, watchMetrics string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever a source file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandWatch, func(c *app.Config) {
				c.DeployOnChange = deployOnChange
				c.Output = watchOutput
				c.MetricsPath = watchMetrics
			})
		},
	}
	watchCmd.Flags().BoolVar(&deployOnChange, "deploy", false, "Smart-deploy after each rebuild.")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Bundle file name or path. Defaults to <output_prefix>.html.")
	watchCmd.Flags().StringVar(&watchMetrics, "metrics-file", "", "Write Prometheus textfile metrics to this path.")

	var port, healthPort int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandServe, func(c *app.Config) {
				c.Port = port
				c.HealthcheckPort = healthPort
			})
		},
	}
	serve.Flags().IntVar(&port, "port", 8080, "Port for the live directory.")
	serve.Flags().IntVar(&healthPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	profiles := &cobra.Command{
		Use:   "profiles",
		Short: "List the configured build profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app.CommandProfiles, nil)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plume version %s\n", Version)
		},
	}

	root.AddCommand(build, deployCmd, index, watchCmd, serve, profiles, version)
	return root
}

// Execute parses args and runs the selected command. Usage mistakes come
// back as an ExitError with code 2; failures of the command itself are
// returned unchanged.
func Execute(ctx context.Context, args []string, outW io.Writer, run RunFunc) error {
	ran := false
	root := NewRootCommand(outW, func(ctx context.Context, command string, cfg *app.Config) error {
		ran = true
		return run(ctx, command, cfg)
	})
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil || ran {
		return err
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 2, Message: err.Error()}
}
