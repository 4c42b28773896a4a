package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayerNow prints the current playback state.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	p, err := r.api.Playback(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(p, false)
	}
	return r.writePlain("%s", formatPlayback(p))
}

// PlayerCommand returns an action posting a body-less command such as "play".
func (r *Runner) PlayerCommand(command string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.api.Control(ctx, command, nil); err != nil {
			return err
		}
		return r.writePlainln("✓ %s", command)
	}
}

// PlayerVolume sets the volume.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	percent, err := intArg(cmd, "percent")
	if err != nil {
		return err
	}
	if err := services.ValidateVolume(percent); err != nil {
		return err
	}
	if err := r.api.Control(ctx, "volume", map[string]int{"volume": percent}); err != nil {
		return err
	}
	return r.writePlainln("✓ volume %d%%", percent)
}

// PlayerShuffle toggles shuffle. Accepts on/off and anything [strconv.ParseBool] understands.
func (r *Runner) PlayerShuffle(ctx context.Context, cmd *cli.Command) error {
	raw := strings.ToLower(cmd.StringArg("state"))
	var on bool
	switch raw {
	case "":
		return fmt.Errorf("%w: shuffle state (on or off)", shared.ErrMissingArgument)
	case "on":
		on = true
	case "off":
		on = false
	default:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: shuffle state must be on or off, got %q", shared.ErrInvalidArgument, raw)
		}
		on = v
	}

	if err := r.api.Control(ctx, "shuffle", map[string]bool{"state": on}); err != nil {
		return err
	}
	return r.writePlainln("✓ shuffle %s", onOff(on))
}

// PlayerRepeat sets the repeat mode.
func (r *Runner) PlayerRepeat(ctx context.Context, cmd *cli.Command) error {
	mode := strings.ToLower(cmd.StringArg("mode"))
	if mode == "" {
		return fmt.Errorf("%w: repeat mode (off, track or context)", shared.ErrMissingArgument)
	}
	if err := services.ValidateRepeat(mode); err != nil {
		return err
	}
	if err := r.api.Control(ctx, "repeat", map[string]string{"state": mode}); err != nil {
		return err
	}
	return r.writePlainln("✓ repeat %s", mode)
}

// PlayerSeek moves playback to a position in milliseconds.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	position, err := intArg(cmd, "position")
	if err != nil {
		return err
	}
	if err := services.ValidateSeek(position); err != nil {
		return err
	}
	if err := r.api.Control(ctx, "seek", map[string]int{"position_ms": position}); err != nil {
		return err
	}
	return r.writePlainln("✓ seek %s", formatMS(position))
}

func intArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return v, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatMS renders milliseconds as m:ss.
func formatMS(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatPlayback(p *models.Playback) string {
	state := "⏸ Paused"
	if p.IsPlaying {
		state = "▶ Playing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", state, p.TrackName)
	fmt.Fprintf(&b, "   %s · %s\n", p.ArtistName, p.AlbumName)
	fmt.Fprintf(&b, "   %s / %s\n", formatMS(p.ProgressMS), formatMS(p.DurationMS))
	fmt.Fprintf(&b, "   volume %d%%  shuffle %s  repeat %s\n", p.Volume, onOff(p.Shuffle), p.Repeat)
	return b.String()
}
