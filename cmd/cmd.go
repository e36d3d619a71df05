// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func withOutputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

// setupCommand handles database setup and migrations.
func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "migrations",
				Usage:  "List applied database migrations",
				Flags:  withOutputFlags(configFlag),
				Action: r.SetupMigrations,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand runs the HTTP API and the periodic scheduler.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the artist watch HTTP API and scheduler",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.BoolFlag{
				Name:  "no-poll",
				Usage: "Only run triggered checks",
			},
		},
		Action: r.Serve,
	}
}

// watchCommand handles watchlist membership, known albums and checks.
func watchCommand(r *Runner) *cli.Command {
	artistArg := []cli.Argument{&cli.StringArg{Name: "artist-id"}}

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Manage watched artists",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Start watching an artist",
				Arguments: artistArg,
				Flags:     outputFlags(),
				Action:    r.WatchAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Stop watching an artist and forget its known albums",
				Arguments: artistArg,
				Action:    r.WatchRemove,
			},
			{
				Name:      "status",
				Usage:     "Show whether an artist is watched",
				Arguments: artistArg,
				Flags:     outputFlags(),
				Action:    r.WatchStatus,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List watched artists",
				Flags: withOutputFlags(&cli.BoolFlag{
					Name:  "csv",
					Usage: "Output CSV",
				}),
				Action: r.WatchList,
			},
			{
				Name:      "albums",
				Usage:     "List the known albums of a watched artist",
				Arguments: artistArg,
				Flags: withOutputFlags(&cli.BoolFlag{
					Name:  "csv",
					Usage: "Output CSV",
				}),
				Action: r.WatchAlbums,
			},
			{
				Name:      "check",
				Usage:     "Check one watched artist, or all of them, for new albums",
				Arguments: artistArg,
				Flags: withOutputFlags(&cli.DurationFlag{
					Name:  "timeout",
					Usage: "Give up waiting for the batch after this long",
					Value: 0,
				}),
				Action: r.WatchCheck,
			},
			{
				Name:  "known",
				Usage: "Record albums as known without downloading them",
				ArgsUsage: "<artist-id> [album-id...]",
				Flags:  outputFlags(),
				Action: r.WatchKnown,
			},
			{
				Name:  "missing",
				Usage: "Forget known albums so the next check downloads them again",
				ArgsUsage: "<artist-id> [album-id...]",
				Flags:  outputFlags(),
				Action: r.WatchMissing,
			},
			{
				Name:      "history",
				Usage:     "Show recorded checks",
				Arguments: artistArg,
				Flags: withOutputFlags(&cli.IntFlag{
					Name:  "limit",
					Usage: "Maximum number of checks to show",
					Value: 20,
				}),
				Action: r.WatchHistory,
			},
			{
				Name:  "prune",
				Usage: "Delete recorded checks older than a cutoff",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age of the oldest check to keep",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.WatchPrune,
			},
			{
				Name:  "export",
				Usage: "Export every watched artist and its known albums",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: watchlist_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent export workers",
						Value: 4,
					},
				},
				Action: r.WatchExport,
			},
		},
	}
}

// artistCommand handles operations on any artist, watched or not.
func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "Inspect and download artist discographies",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show an artist's discography, annotated with known albums when watched",
				Arguments: []cli.Argument{&cli.StringArg{Name: "artist-id"}},
				Flags:     outputFlags(),
				Action:    r.ArtistInfo,
			},
			{
				Name:      "download",
				Usage:     "Queue an artist's discography for download",
				Arguments: []cli.Argument{&cli.StringArg{Name: "artist-id"}},
				Flags: withOutputFlags(&cli.StringFlag{
					Name:  "album-type",
					Usage: "Comma separated album types (defaults to [downloads] album_type)",
				}),
				Action: r.ArtistDownload,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive watchlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for the watchlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/discwatch-tui.log",
			},
		},
		Action: r.TUI,
	}
}
