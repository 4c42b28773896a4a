package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotctl/internal/server"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// openAuth builds the auth manager over the config file and token cache named by the global flags. Callers own the
// returned store and must close it.
func (r *Runner) openAuth(ctx context.Context, cmd *cli.Command) (*services.AuthManager, services.TokenStore, error) {
	store := shared.NewConfigStore(cmd.String("config"), r.logger)

	tokens, err := services.OpenTokenStore(ctx, cmd.String("token-cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open token cache: %w", err)
	}

	auth := services.NewAuthManager(store, tokens,
		services.WithHTTPClient(&http.Client{Timeout: r.env.UpstreamTimeout}),
		services.WithAuthLogger(shared.WithLogger(r.logger, "component", "auth")),
	)
	return auth, tokens, nil
}

// Serve runs the web server until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth, tokens, err := r.openAuth(ctx, cmd)
	if err != nil {
		return err
	}
	defer tokens.Close()

	config := auth.Config()
	if host := cmd.String("host"); host != "" {
		config.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Port = int(port)
	}

	playback := services.NewPlaybackService(auth,
		services.WithTimeout(r.env.UpstreamTimeout),
		services.WithPlaybackLogger(shared.WithLogger(r.logger, "component", "playback")),
	)
	srv := server.New(auth, playback, server.WithLogger(r.logger))

	l, err := net.Listen("tcp", config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Addr(), err)
	}

	if !config.HasCredentials() {
		r.logger.Warn("no Spotify credentials configured; open the setup page or run `spotctl pair`")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(l)
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.WithoutCancel(gctx))
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}
