package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginPollInterval = time.Second

// AuthURL prints the authorization URL issued by the server.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	u, err := r.api.AuthURL(ctx)
	if err != nil {
		return err
	}
	if u.Authenticated || u.URL == nil {
		return r.writePlainln("✓ Already authenticated")
	}
	return r.writePlainln("%s", *u.URL)
}

// AuthLogin opens the authorization URL and waits until the callback has stored a token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	u, err := r.api.AuthURL(ctx)
	if err != nil {
		return err
	}
	if u.Authenticated || u.URL == nil {
		return r.writePlainln("✓ Already authenticated")
	}

	if cmd.Bool("no-browser") {
		if err := r.writePlainln("Open this URL to authorize:\n%s", *u.URL); err != nil {
			return err
		}
	} else if err := r.openBrowser(*u.URL); err != nil {
		r.logger.Warn("could not open a browser", "error", err)
		if err := r.writePlainln("Open this URL to authorize:\n%s", *u.URL); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("wait"))
	defer cancel()

	r.logger.Info("waiting for authorization")
	if err := r.waitAuthenticated(ctx, loginPollInterval); err != nil {
		return err
	}
	return r.writePlainln("✓ Authentication successful")
}

func (r *Runner) waitAuthenticated(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := r.api.SetupStatus(ctx)
		if err != nil && ctx.Err() == nil {
			return err
		}
		if status != nil && status.IsAuthenticated {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: authorization not completed", shared.ErrTimeout)
		case <-ticker.C:
		}
	}
}

// AuthStatus reports whether credentials are set and a token is cached.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.api.SetupStatus(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}
	return r.writePlain("%s", describeStatus(status))
}

func describeStatus(s *models.SetupStatus) string {
	switch {
	case s.NeedsSetup:
		return "✗ No Spotify credentials configured\nRun `spotctl pair` or open the setup page.\n"
	case s.NeedsAuth:
		return "✓ Credentials configured\n✗ Not authenticated\nRun `spotctl auth login`.\n"
	default:
		return "✓ Credentials configured\n✓ Authenticated\n"
	}
}
