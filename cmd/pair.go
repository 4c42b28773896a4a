package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Pair shows a QR code for a new pairing session and saves the credentials entered on the phone.
func (r *Runner) Pair(ctx context.Context, cmd *cli.Command) error {
	model := ui.NewModel(ctx, r.api, cmd.Duration("interval"))

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("pairing screen failed: %w", err)
	}

	if err := model.Result(); err != nil {
		return err
	}
	r.logger.Info("credentials received from pairing session")
	return nil
}
