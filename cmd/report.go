package main

import (
	"context"

	"github.com/desertthunder/lineup/internal/formatter"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/urfave/cli/v3"
)

type catalogStats struct {
	Artists  int `json:"artists"`
	Enriched int `json:"enriched"`
	Events   int `json:"events"`
	Links    any `json:"links"`
}

// Stats prints artist, event and link counts.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	artists := repositories.NewArtistRepository(db)

	var stats catalogStats
	if stats.Artists, err = artists.Count(); err != nil {
		return err
	}
	if stats.Enriched, err = artists.CountEnriched(); err != nil {
		return err
	}
	if stats.Events, err = repositories.NewEventRepository(db).Count(); err != nil {
		return err
	}
	links, err := repositories.NewLinkRepository(db).Stats()
	if err != nil {
		return err
	}
	stats.Links = links

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}
	r.writePlainHeader("Catalog")
	r.writePlain("Artists: %d (%d enriched)\nEvents: %d\n", stats.Artists, stats.Enriched, stats.Events)
	r.writePlain("Links: %d (%d high, %d medium, %d low)\n", links.Total, links.High, links.Medium, links.Low)
	r.writePlain("Linked artists: %d\nLinked events: %d\n", links.LinkedArtists, links.LinkedEvents)
	return nil
}

// ReportGaps writes the gap report in the requested format.
func (r *Runner) ReportGaps(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}
	report, err := engine.CheckMissing(nil)
	if err != nil {
		return err
	}
	links, err := repositories.NewLinkRepository(r.db).Stats()
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if cmd.String("out") == "-" {
		data, err := formatter.Render(report, format, &links)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteReport(report, format, cmd.String("out"), &links)
	if err != nil {
		return err
	}
	r.logger.Info("gap report written", "path", path, "format", format)
	return r.writePlain("✓ Gap report written to %s (%d artists without events)\n", path, report.ArtistsWithoutEvents)
}
