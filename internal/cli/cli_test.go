package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/plume/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture records the command and config a run would receive.
type capture struct {
	command string
	cfg     *app.Config
}

func (c *capture) run(_ context.Context, command string, cfg *app.Config) error {
	c.command = command
	c.cfg = cfg
	return nil
}

func TestExecute(t *testing.T) {
	base := func(mutate func(*app.Config)) *app.Config {
		cfg := &app.Config{Root: ".", LogFormat: "text", LogLevel: "info", WorkerCount: 8}
		if mutate != nil {
			mutate(cfg)
		}
		return cfg
	}

	testCases := []struct {
		name        string
		args        []string
		wantCommand string
		wantConfig  *app.Config
	}{
		{
			name:        "build with defaults",
			args:        []string{"build"},
			wantCommand: app.CommandBuild,
			wantConfig:  base(nil),
		},
		{
			name:        "build with global flags",
			args:        []string{"--root", "/src/plume", "-c", "a.hcl", "-c", "conf.d", "-p", "full", "--log-level", "DEBUG", "--log-format", "json", "build", "-o", "build/x.html"},
			wantCommand: app.CommandBuild,
			wantConfig: base(func(c *app.Config) {
				c.Root = "/src/plume"
				c.ConfigPaths = []string{"a.hcl", "conf.d"}
				c.Profile = "full"
				c.LogLevel = "debug"
				c.LogFormat = "json"
				c.Output = "build/x.html"
			}),
		},
		{
			name:        "full deploy with report",
			args:        []string{"deploy", "--full", "--report", "r.yaml", "--metrics-file", "m.prom", "--workers", "3"},
			wantCommand: app.CommandDeploy,
			wantConfig: base(func(c *app.Config) {
				c.Full = true
				c.ReportPath = "r.yaml"
				c.MetricsPath = "m.prom"
				c.WorkerCount = 3
			}),
		},
		{
			name:        "watch and deploy",
			args:        []string{"watch", "--deploy"},
			wantCommand: app.CommandWatch,
			wantConfig:  base(func(c *app.Config) { c.DeployOnChange = true }),
		},
		{
			name:        "serve",
			args:        []string{"serve", "--port", "9000", "--healthcheck-port", "9001"},
			wantCommand: app.CommandServe,
			wantConfig: base(func(c *app.Config) {
				c.Port = 9000
				c.HealthcheckPort = 9001
			}),
		},
		{
			name:        "index",
			args:        []string{"index"},
			wantCommand: app.CommandIndex,
			wantConfig:  base(nil),
		},
		{
			name:        "profiles",
			args:        []string{"profiles"},
			wantCommand: app.CommandProfiles,
			wantConfig:  base(nil),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &capture{}
			err := Execute(context.Background(), tc.args, &bytes.Buffer{}, c.run)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCommand, c.command)
			if diff := cmp.Diff(tc.wantConfig, c.cfg); diff != "" {
				t.Errorf("Config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteUsageErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"build", "--nope"}, "unknown flag: --nope"},
		{"bad log format", []string{"--log-format", "xml", "build"}, "invalid log-format"},
		{"bad log level", []string{"--log-level", "loud", "deploy"}, "invalid log-level"},
		{"zero workers", []string{"--workers", "0", "deploy"}, "invalid workers"},
		{"unknown command", []string{"publish"}, `unknown command "publish"`},
		{"unexpected argument", []string{"build", "extra"}, "unknown command"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &capture{}
			err := Execute(context.Background(), tc.args, &bytes.Buffer{}, c.run)
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
			assert.Empty(t, c.command, "run must not be called")
		})
	}
}

func TestExecuteRunErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	err := Execute(context.Background(), []string{"deploy"}, &bytes.Buffer{}, func(context.Context, string, *app.Config) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestExecuteHelpAndVersion(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Execute(context.Background(), []string{"--help"}, out, (&capture{}).run))
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "deploy")

	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"version"}, out, (&capture{}).run))
	assert.Equal(t, "plume version dev\n", out.String())
}
