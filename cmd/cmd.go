// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// serverGrace is added to the upstream timeout for CLI requests against the local server.
const serverGrace = 5 * time.Second

func (r *Runner) globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file (.json or .toml)",
			Value:   r.env.ConfigPath,
		},
		&cli.StringFlag{
			Name:  "token-cache",
			Usage: "Path to the OAuth token cache (.db/.sqlite for SQLite, anything else for JSON)",
			Value: r.env.TokenCachePath,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: r.env.LogLevel,
		},
		&cli.StringFlag{
			Name:  "server",
			Usage: "Base URL of a running spotctl server",
			Value: r.env.ServerURL,
		},
	}
}

// serveCommand runs the playback proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web server until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// configCommand edits the local configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and edit the local configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default configuration file and prepare the token cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Overwrite an existing configuration and rebuild the token cache",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the configuration with the client secret masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:  "set",
				Usage: "Update configuration fields; changing credentials signs you out",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client-id", Usage: "Spotify app client ID"},
					&cli.StringFlag{Name: "client-secret", Usage: "Spotify app client secret"},
					&cli.StringFlag{Name: "redirect-uri", Usage: "OAuth redirect URI registered with the app"},
					&cli.StringFlag{Name: "host", Usage: "Listen host"},
					&cli.IntFlag{Name: "port", Usage: "Listen port"},
				},
				Action: r.ConfigSet,
			},
			{
				Name:   "clear",
				Usage:  "Remove the client credentials and the cached token",
				Action: r.ConfigClear,
			},
		},
	}
}

// authCommand drives the OAuth flow through a running server
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize spotctl with Spotify",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the authorization URL",
				Action: r.AuthURL,
			},
			{
				Name:  "login",
				Usage: "Open the authorization page in a browser and wait for completion",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for the browser flow",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show credential and authorization status",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// pairCommand enters credentials from a phone
func pairCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pair",
		Usage: "Show a QR code to enter Spotify credentials from a phone",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "How often to check for submitted credentials",
				Value: 2 * time.Second,
			},
		},
		Action: r.Pair,
	}
}

// playerCommand is a thin client over the playback endpoints
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Control playback through a running server",
		Commands: []*cli.Command{
			{
				Name:  "now",
				Usage: "Show what is playing",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerNow,
			},
			{Name: "play", Usage: "Resume playback", Action: r.PlayerCommand("play")},
			{Name: "pause", Usage: "Pause playback", Action: r.PlayerCommand("pause")},
			{Name: "next", Usage: "Skip to the next track", Action: r.PlayerCommand("next")},
			{Name: "previous", Aliases: []string{"prev"}, Usage: "Skip to the previous track", Action: r.PlayerCommand("previous")},
			{
				Name:      "volume",
				Usage:     "Set the volume (0-100)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "percent"}},
				Action:    r.PlayerVolume,
			},
			{
				Name:      "shuffle",
				Usage:     "Turn shuffle on or off",
				Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
				Action:    r.PlayerShuffle,
			},
			{
				Name:      "repeat",
				Usage:     "Set repeat mode: off, track or context",
				Arguments: []cli.Argument{&cli.StringArg{Name: "mode"}},
				Action:    r.PlayerRepeat,
			},
			{
				Name:      "seek",
				Usage:     "Seek to a position in milliseconds",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.PlayerSeek,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the server API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a path and print the response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "POST a JSON body to a path",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
						Value:   "{}",
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "delete",
				Usage: "DELETE a path",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.APIDelete,
			},
		},
	}
}
