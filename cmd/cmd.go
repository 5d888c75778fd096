// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   configPath(),
	}
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "Day the photos were taken (YYYY-MM-DD, default: today)",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "import",
				Usage: "Import credentials from a legacy JSON settings file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "json",
						Usage: "Path to the legacy settings file",
						Value: "photo_sync_config.json",
					},
				},
				Action: r.SetupImport,
			},
		},
	}
}

// connectCommand checks the credentials of both services
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "connect",
		Usage:  "Log in to PhotoPrism and Lychee and report the session status",
		Action: r.Connect,
	}
}

// searchCommand lists the photos taken on a day
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "List PhotoPrism photos taken on a day",
		Flags: []cli.Flag{
			dateFlag(),
			&cli.IntFlag{
				Name:  "count",
				Usage: "Maximum number of photos to return (default: thumbnails.search_count)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
		},
		Action: r.Search,
	}
}

// albumsCommand prints the flattened Lychee album tree
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "List Lychee albums as an indented tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Albums,
	}
}

// transferCommand moves one photo
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer a single photo from PhotoPrism to Lychee",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "uid",
				Usage:    "PhotoPrism photo UID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Lychee album ID (empty uploads to the root album)",
			},
			&cli.BoolFlag{
				Name:  "legacy-tokens",
				Usage: "Retry the download with the preview and access tokens",
			},
		},
		Action: r.Transfer,
	}
}

// thumbsCommand prefetches the thumbnails of a day to disk
func thumbsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "thumbs",
		Usage: "Download the thumbnails of a day into a directory",
		Flags: []cli.Flag{
			dateFlag(),
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Maximum number of photos (default: thumbnails.search_count)",
			},
		},
		Action: r.Thumbs,
	}
}

// historyCommand shows past transfers
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent transfers",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show records with this status (running, succeeded, failed)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive transfers.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for photo transfer",
		Flags:   []cli.Flag{dateFlag()},
		Action:  r.TUI,
	}
}
