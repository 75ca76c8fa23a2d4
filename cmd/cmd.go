// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func dateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "Only items on or after this date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "Only items on or before this date (YYYY-MM-DD)"},
	}
}

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: pretty},
	}
}

// phaseFlags toggle the comprehensive sync phases; all default to on.
func phaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "artists", Usage: "Sync artists", Value: true},
		&cli.BoolFlag{Name: "events", Usage: "Sync events", Value: true},
		&cli.BoolFlag{Name: "lineups", Usage: "Parse lineups from event pages", Value: true},
		&cli.BoolFlag{Name: "link", Usage: "Link artists to events", Value: true},
		&cli.BoolFlag{Name: "enrich", Usage: "Enrich artists with Spotify metadata (needs credentials)", Value: true},
		&cli.BoolFlag{Name: "check-missing", Usage: "Build the gap report", Value: true},
	}
}

// setupCommand handles setup operations for the configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides [server] host and port)"},
		},
		Action: r.Serve,
	}
}

// syncCommand handles catalog syncs.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the festival program",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Sync artists and events and record the run in sync history",
				Flags:  dateFlags(),
				Action: r.SyncRun,
			},
			{
				Name:    "comprehensive",
				Aliases: []string{"all"},
				Usage:   "Run the phased sync: artists, events, lineups, links, enrichment, gap report",
				Flags:   append(append(phaseFlags(), dateFlags()...), outputFlags(true)...),
				Action:  r.SyncComprehensive,
			},
			{
				Name:  "history",
				Usage: "List recent sync runs",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs", Value: 20},
				}, outputFlags(true)...),
				Action: r.SyncHistory,
			},
		},
	}
}

// linkCommand handles artist to event linking.
func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Link artists to events by name",
		Commands: []*cli.Command{
			{
				Name:   "all",
				Usage:  "Match every artist against every event",
				Flags:  outputFlags(true),
				Action: r.LinkAll,
			},
			{
				Name:  "artist",
				Usage: "Match a single artist",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{Name: "id", Usage: "Artist ID", Required: true},
				}, outputFlags(true)...),
				Action: r.LinkArtist,
			},
		},
	}
}

// enrichCommand handles Spotify enrichment.
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Enrich artists with Spotify metadata",
		Commands: []*cli.Command{
			{
				Name:  "artist",
				Usage: "Enrich one artist",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{Name: "id", Usage: "Artist ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Search term (defaults to the stored title)"},
					&cli.BoolFlag{Name: "force", Usage: "Re-enrich an already enriched artist"},
				}, outputFlags(true)...),
				Action: r.EnrichArtist,
			},
			{
				Name:  "batch",
				Usage: "Enrich artists that have no Spotify id yet",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of artists (0 uses [enrichment] batch_size)"},
				},
				Action: r.EnrichBatch,
			},
		},
	}
}

// statsCommand prints catalog counts.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show artist, event and link counts",
		Flags:  outputFlags(true),
		Action: r.Stats,
	}
}

// reportCommand writes reports.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate reports",
		Commands: []*cli.Command{
			{
				Name:  "gaps",
				Usage: "Report artists without events and suggested events",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, md, txt or json", Value: "md"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default gap_report.<format>, - for stdout)"},
				},
				Action: r.ReportGaps,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for monitoring a comprehensive sync.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive comprehensive sync monitor",
		Flags:   dateFlags(),
		Action:  r.TUI,
	}
}
