package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/plume/internal/app"
	"github.com/specialistvlad/plume/internal/cli"
	"github.com/specialistvlad/plume/internal/hcl"
)

// main is the entrypoint for the plume application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	// The real main function handles errors and exit codes.
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	// Instantiate the concrete HCL loader to pass to the app.
	loader := hcl.NewLoader()

	return cli.Execute(ctx, args, outW, func(ctx context.Context, command string, cfg *app.Config) error {
		plume, err := app.NewApp(outW, cfg, loader)
		if err != nil {
			return err
		}
		defer plume.Close()
		return plume.Run(ctx, command)
	})
}
