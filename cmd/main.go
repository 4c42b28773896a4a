package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/desertthunder/spotctl/internal/ui"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	env, err := shared.LoadEnv()
	if err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}

	runner := NewRunner(RunnerOpts{Env: env, Logger: logger})

	app := &cli.Command{
		Name:     "spotctl",
		Usage:    "Control Spotify playback from a local web server",
		Version:  "0.1.0",
		Flags:    runner.globalFlags(),
		Before:   runner.before,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if isUserError(err) {
			logger.Error(err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// isUserError reports failures caused by input or server state rather than a bug or broken environment.
func isUserError(err error) bool {
	var apiErr *services.APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, shared.ErrInvalidArgument) ||
		errors.Is(err, shared.ErrMissingArgument) ||
		errors.Is(err, shared.ErrInvalidCredentials) ||
		errors.Is(err, shared.ErrSessionNotFound) ||
		errors.Is(err, shared.ErrSessionUsed) ||
		errors.Is(err, shared.ErrSessionNotReady) ||
		errors.Is(err, shared.ErrTimeout) ||
		errors.Is(err, ui.ErrCancelled)
}
