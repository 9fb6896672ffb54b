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

	"github.com/vk/arcanebooks/internal/app"
	"github.com/vk/arcanebooks/internal/cli"
	"github.com/vk/arcanebooks/internal/hcl"
)

// main is the entrypoint for the arcanebooks application.
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
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := hcl.NewLoader()
	arcaneApp := app.NewApp(outW, appConfig, loader)

	return arcaneApp.Run(ctx)
}
