package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the default configuration and creates the token cache so SQLite caches are migrated up front.
//
// With --reset an existing configuration is overwritten and the token cache is rebuilt from scratch.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if cmd.Bool("reset") {
		if err := shared.SaveConfig(path, shared.DefaultConfig()); err != nil {
			return err
		}
		if err := services.ResetTokenStore(ctx, cmd.String("token-cache")); err != nil {
			return err
		}
		r.logger.Info("config and token cache reset", "path", path)
	} else {
		if err := shared.CreateConfigFile(path); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		r.logger.Info("config created", "path", path)
	}

	tokens, err := services.OpenTokenStore(ctx, cmd.String("token-cache"))
	if err != nil {
		return fmt.Errorf("failed to prepare token cache: %w", err)
	}
	defer tokens.Close()

	if err := r.writePlainln("✓ Wrote %s", path); err != nil {
		return err
	}
	return r.writePlainln("Next: run `spotctl serve` and open the setup page, or `spotctl config set --client-id ... --client-secret ...`")
}

// ConfigShow prints the configuration with the secret masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	auth, tokens, err := r.openAuth(ctx, cmd)
	if err != nil {
		return err
	}
	defer tokens.Close()

	return r.writeJSON(auth.Config().Masked(), cmd.Bool("pretty"))
}

// ConfigSet applies the given flags to the configuration file. Changing the client credentials clears the token cache.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	patch := shared.ConfigPatch{
		ClientID:     cmd.String("client-id"),
		ClientSecret: cmd.String("client-secret"),
		RedirectURI:  cmd.String("redirect-uri"),
		Host:         cmd.String("host"),
		Port:         int(cmd.Int("port")),
	}
	if patch == (shared.ConfigPatch{}) {
		return fmt.Errorf("%w: pass at least one of --client-id, --client-secret, --redirect-uri, --host, --port",
			shared.ErrMissingArgument)
	}

	auth, tokens, err := r.openAuth(ctx, cmd)
	if err != nil {
		return err
	}
	defer tokens.Close()

	config, err := auth.MutateConfig(ctx, func(c *shared.Config) error {
		return c.Apply(patch)
	})
	if err != nil {
		return err
	}

	r.logger.Info("config updated", "path", cmd.String("config"))
	return r.writeJSON(config.Masked(), true)
}

// ConfigClear removes the credentials, which also signs out.
func (r *Runner) ConfigClear(ctx context.Context, cmd *cli.Command) error {
	auth, tokens, err := r.openAuth(ctx, cmd)
	if err != nil {
		return err
	}
	defer tokens.Close()

	if err := auth.ClearCredentials(ctx); err != nil {
		return err
	}
	return r.writePlainln("✓ Credentials cleared")
}
