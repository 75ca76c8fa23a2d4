package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printProgress writes updates until progressCh is closed, then signals done.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	var last tasks.Phase = -1
	for update := range progressCh {
		if update.Phase != last {
			r.writePlain("\n▶ %s\n", update.Phase)
			last = update.Phase
		}
		r.writePlain("  [%5.1f%%] %s\n", update.Progress, update.Message)
	}
}

// SyncRun syncs artists and events and records a sync history row.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}
	dates := services.DateRange{From: cmd.String("from"), To: cmd.String("to")}
	r.logger.Info("starting sync", "from", dates.From, "to", dates.To)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	h, err := engine.RunSimple(ctx, dates, progressCh)
	close(progressCh)
	<-done

	if h != nil {
		r.writePlain("\n")
		r.writePlainHeader(fmt.Sprintf("Sync #%d %s", h.ID, h.Status))
		r.writePlain("Fetched: %d\nNew: %d\nUpdated: %d\n", h.TotalItemsFetched, h.NewItemsAdded, h.ItemsUpdated)
	}
	return err
}

// SyncComprehensive runs the enabled phases in the foreground.
func (r *Runner) SyncComprehensive(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}

	opts := tasks.Options{
		SyncArtists:   cmd.Bool("artists"),
		SyncEvents:    cmd.Bool("events"),
		ParseLineups:  cmd.Bool("lineups"),
		LinkArtists:   cmd.Bool("link"),
		EnrichArtists: cmd.Bool("enrich"),
		CheckMissing:  cmd.Bool("check-missing"),
		From:          cmd.String("from"),
		To:            cmd.String("to"),
	}
	if opts.EnrichArtists && engine.Enricher() == nil && !cmd.IsSet("enrich") {
		r.logger.Warn("spotify credentials not configured, skipping enrichment")
		opts.EnrichArtists = false
	}

	id, err := engine.PrepareComprehensive("", opts)
	if err != nil {
		return err
	}
	r.logger.Info("starting comprehensive sync", "session", id, "phases", len(opts.Phases()))

	asJSON := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	if asJSON {
		go func() {
			for range progressCh {
			}
			close(done)
		}()
	} else {
		go r.printProgress(progressCh, done)
	}

	stats, runErr := engine.RunComprehensive(ctx, id, opts, progressCh)
	close(progressCh)
	<-done

	session, err := engine.Sessions().Get(id)
	if err != nil {
		return err
	}
	if asJSON {
		if err := r.writeJSON(session, cmd.Bool("pretty")); err != nil {
			return err
		}
		return runErr
	}

	r.writePlain("\n")
	if runErr != nil {
		r.writePlainHeader(fmt.Sprintf("Sync failed during %s", session.Phase))
	} else {
		r.writePlainHeader("Sync Complete")
	}
	r.writeStats(stats)
	if report, ok := session.Report.(*models.GapReport); ok && report != nil {
		r.writePlain("Artists without events: %d\nMissing lineup artists: %d\nPotential events: %d\n",
			report.ArtistsWithoutEvents, len(report.MissingArtists), tasks.PotentialEvents(report))
	}
	return runErr
}

func (r *Runner) writeStats(s tasks.SyncStats) {
	r.writePlain("Artists: %d fetched, %d new, %d updated, %d failed\n", s.ArtistsFetched, s.ArtistsCreated, s.ArtistsUpdated, s.ArtistsFailed)
	r.writePlain("Events: %d fetched, %d new, %d updated, %d failed\n", s.EventsFetched, s.EventsCreated, s.EventsUpdated, s.EventsFailed)
	r.writePlain("Lineups: %d parsed, %d found, %d entries, %d errors\n", s.LineupsParsed, s.LineupsFound, s.LineupEntries, s.LineupErrors)
	r.writePlain("Links: %d new, %d existing, %d missing artists, %d errors\n", s.LinksCreated, s.LinksExisting, s.MissingArtists, s.LinkErrors)
	r.writePlain("Enrichment: %d/%d enriched, %d errors\n", s.ArtistsEnriched, s.ArtistsToEnrich, s.EnrichmentErrors)
}

// SyncHistory lists recent sync runs.
func (r *Runner) SyncHistory(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}
	history, err := engine.History(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(history, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Sync History")
	for _, h := range history {
		r.writePlain("#%-4d %-13s %-9s %s  fetched=%d new=%d updated=%d", h.ID, h.Kind, h.Status,
			h.StartedAt.Format("2006-01-02 15:04:05"), h.TotalItemsFetched, h.NewItemsAdded, h.ItemsUpdated)
		if h.ErrorMessage != "" {
			r.writePlain("  error=%q", h.ErrorMessage)
		}
		r.writePlain("\n")
	}
	return nil
}
