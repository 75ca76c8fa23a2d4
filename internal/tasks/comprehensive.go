package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
)

// Options toggles the phases of a comprehensive sync.
type Options struct {
	SyncArtists   bool   `json:"syncArtists"`
	SyncEvents    bool   `json:"syncEvents"`
	ParseLineups  bool   `json:"parseLineups"`
	LinkArtists   bool   `json:"linkArtists"`
	EnrichArtists bool   `json:"enrichArtists"`
	CheckMissing  bool   `json:"checkMissing"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
}

// AllPhases enables every phase.
func AllPhases() Options {
	return Options{
		SyncArtists:   true,
		SyncEvents:    true,
		ParseLineups:  true,
		LinkArtists:   true,
		EnrichArtists: true,
		CheckMissing:  true,
	}
}

// Set toggles a single phase. Phases outside the six sync phases are ignored.
func (o *Options) Set(p Phase, on bool) {
	switch p {
	case PhaseSyncArtists:
		o.SyncArtists = on
	case PhaseSyncEvents:
		o.SyncEvents = on
	case PhaseParseLineups:
		o.ParseLineups = on
	case PhaseLinkArtists:
		o.LinkArtists = on
	case PhaseEnrichArtists:
		o.EnrichArtists = on
	case PhaseCheckMissing:
		o.CheckMissing = on
	}
}

// Phases returns the enabled phases in execution order.
func (o Options) Phases() []Phase {
	var phases []Phase
	for _, p := range []struct {
		on    bool
		phase Phase
	}{
		{o.SyncArtists, PhaseSyncArtists},
		{o.SyncEvents, PhaseSyncEvents},
		{o.ParseLineups, PhaseParseLineups},
		{o.LinkArtists, PhaseLinkArtists},
		{o.EnrichArtists, PhaseEnrichArtists},
		{o.CheckMissing, PhaseCheckMissing},
	} {
		if p.on {
			phases = append(phases, p.phase)
		}
	}
	return phases
}

// SyncStats are the running counters of a comprehensive sync.
type SyncStats struct {
	ArtistsFetched       int `json:"artistsFetched"`
	ArtistsCreated       int `json:"artistsCreated"`
	ArtistsUpdated       int `json:"artistsUpdated"`
	ArtistsFailed        int `json:"artistsFailed"`
	EventsFetched        int `json:"eventsFetched"`
	EventsCreated        int `json:"eventsCreated"`
	EventsUpdated        int `json:"eventsUpdated"`
	EventsFailed         int `json:"eventsFailed"`
	EventsWithURL        int `json:"eventsWithUrl"`
	LineupsParsed        int `json:"lineupsParsed"`
	LineupsFound         int `json:"lineupsFound"`
	LineupEntries        int `json:"lineupEntries"`
	LineupErrors         int `json:"lineupErrors"`
	LinksCreated         int `json:"linksCreated"`
	LinksExisting        int `json:"linksExisting"`
	MissingArtists       int `json:"missingArtists"`
	LinkErrors           int `json:"linkErrors"`
	ArtistsToEnrich      int `json:"artistsToEnrich"`
	ArtistsEnriched      int `json:"artistsEnriched"`
	EnrichmentErrors     int `json:"enrichmentErrors"`
	ArtistsWithoutEvents int `json:"artistsWithoutEvents"`
	PotentialEvents      int `json:"potentialEvents"`
}

// run carries the state of one comprehensive sync.
type run struct {
	e        *Engine
	id       string
	opts     Options
	progress chan<- ProgressUpdate
	stats    SyncStats
	missing  []models.LineupEntry
	report   *models.GapReport

	// base and span place the current phase within [0,100].
	base float64
	span float64
}

func (r *run) at(fraction float64) float64 {
	return r.base + r.span*min(max(fraction, 0), 1)
}

// publish sends update to the progress channel and mirrors it into the session.
func (r *run) publish(update ProgressUpdate, currentItem string) {
	sendProgress(r.progress, update)
	stats := r.stats
	err := r.e.sessions.Update(r.id, func(s *Session) {
		s.Phase = update.Phase.String()
		s.Progress = update.Progress
		s.Message = update.Message
		s.CurrentItem = currentItem
		s.Stats = stats
	})
	if err != nil {
		r.e.logger.Warn("failed to update session", "session", r.id, "error", err)
	}
}

func (r *run) log(level, format string, args ...any) {
	_ = r.e.sessions.Update(r.id, func(s *Session) { s.Log(level, format, args...) })
}

// PrepareComprehensive validates opts and creates the session a run reports into.
// An empty sessionID gets a generated one.
func (e *Engine) PrepareComprehensive(sessionID string, opts Options) (string, error) {
	if opts.EnrichArtists && e.enricher == nil {
		return "", fmt.Errorf("%w: enrichment requires Spotify credentials", shared.ErrMissingCredentials)
	}
	if sessionID == "" {
		sessionID = shared.GenerateID()
	}
	if _, err := e.sessions.Create(sessionID, KindComprehensive); err != nil {
		return "", err
	}
	return sessionID, nil
}

// StartComprehensive prepares a session and runs the sync in the background.
func (e *Engine) StartComprehensive(sessionID string, opts Options) (string, error) {
	id, err := e.PrepareComprehensive(sessionID, opts)
	if err != nil {
		return "", err
	}
	go func() {
		_, _ = e.RunComprehensive(e.base, id, opts, nil)
	}()
	return id, nil
}

// RunComprehensive executes the enabled phases in order against a prepared session.
//
// A failing phase stops the run: the session is marked completed with the error and the
// work of earlier phases is kept. The run is also recorded in sync_history.
func (e *Engine) RunComprehensive(ctx context.Context, sessionID string, opts Options, progress chan<- ProgressUpdate) (SyncStats, error) {
	r := &run{e: e, id: sessionID, opts: opts, progress: progress}
	logger := e.logger.With("session", sessionID)
	defer func() {
		if err := e.sessions.Expire(sessionID, e.syncTTL); err != nil {
			logger.Warn("failed to expire session", "error", err)
		}
	}()

	h, err := e.beginHistory(models.SyncKindComprehensive, sessionID)
	if err != nil {
		r.fail(PhaseStarting, err)
		return r.stats, err
	}
	_ = e.sessions.Update(sessionID, func(s *Session) { s.HistoryID = h.ID })

	phases := opts.Phases()
	r.log("info", "comprehensive sync started with %d phases", len(phases))
	logger.Info("comprehensive sync started", "phases", len(phases))

	for i, phase := range phases {
		r.span = 100 / float64(len(phases))
		r.base = float64(i) * r.span
		r.publish(phaseStartedUpdate(phase, r.at(0)), "")
		r.log("info", "%s", phase)

		started := time.Now()
		err := r.runPhase(ctx, phase)
		status := "success"
		if err != nil {
			status = "failed"
		}
		metrics.ObservePhase(phase.Key(), status, time.Since(started))

		if err != nil {
			r.recordHistory(h)
			_ = e.finishHistory(h, fmt.Errorf("%s: %w", phase, err))
			r.fail(phase, err)
			return r.stats, err
		}
		logger.Info("phase complete", "phase", phase.Key(), "duration", time.Since(started))
	}

	r.recordHistory(h)
	_ = e.finishHistory(h, nil)

	stats, report := r.stats, r.report
	sendProgress(progress, completeUpdate(stats))
	_ = e.sessions.Update(sessionID, func(s *Session) {
		s.Phase = PhaseComplete.String()
		s.Progress = 100
		s.Message = "Sync complete"
		s.CurrentItem = ""
		s.Stats = stats
		if report != nil {
			s.Report = report
		}
		s.Completed = true
		s.Log("info", "sync complete")
	})
	logger.Info("comprehensive sync complete", "enriched", stats.ArtistsEnriched, "links", stats.LinksCreated)
	return stats, nil
}

func (r *run) recordHistory(h *models.SyncHistory) {
	h.TotalItemsFetched = r.stats.ArtistsFetched + r.stats.EventsFetched
	h.NewItemsAdded = r.stats.ArtistsCreated + r.stats.EventsCreated
	h.ItemsUpdated = r.stats.ArtistsUpdated + r.stats.EventsUpdated
}

func (r *run) fail(phase Phase, err error) {
	progress := r.at(0)
	sendProgress(r.progress, failedUpdate(phase, progress, err))
	stats := r.stats
	_ = r.e.sessions.Update(r.id, func(s *Session) {
		s.Phase = phase.String()
		s.Message = fmt.Sprintf("%s failed", phase)
		s.Stats = stats
		s.Completed = true
		s.Error = err.Error()
		s.Log("error", "%s failed: %v", phase, err)
	})
}

func (r *run) runPhase(ctx context.Context, phase Phase) error {
	e := r.e
	dates := services.DateRange{From: r.opts.From, To: r.opts.To}

	switch phase {
	case PhaseSyncArtists:
		counts, err := e.syncArtists(ctx, dates, func(page, items int) {
			r.publish(pageUpdate(phase, page, items, r.at(1-1/float64(page+2))), "")
		})
		r.stats.ArtistsFetched, r.stats.ArtistsCreated = counts.Fetched, counts.Created
		r.stats.ArtistsUpdated, r.stats.ArtistsFailed = counts.Updated, counts.Failed
		if err != nil {
			return err
		}
		r.done(phase, fmt.Sprintf("%d fetched, %d new, %d updated", counts.Fetched, counts.Created, counts.Updated))

	case PhaseSyncEvents:
		counts, err := e.syncEvents(ctx, dates, func(page, items int) {
			r.publish(pageUpdate(phase, page, items, r.at(1-1/float64(page+2))), "")
		})
		r.stats.EventsFetched, r.stats.EventsCreated = counts.Fetched, counts.Created
		r.stats.EventsUpdated, r.stats.EventsFailed = counts.Updated, counts.Failed
		if err != nil {
			return err
		}
		r.done(phase, fmt.Sprintf("%d fetched, %d new, %d updated", counts.Fetched, counts.Created, counts.Updated))

	case PhaseParseLineups:
		counts, err := e.parseLineups(ctx, func(batch, batches int, c LineupCounts) {
			r.setLineupStats(c)
			r.publish(batchUpdate(phase, batch, batches, r.at(float64(batch)/float64(batches))), "")
		})
		r.setLineupStats(counts)
		if err != nil {
			return err
		}
		r.done(phase, fmt.Sprintf("%d/%d pages parsed, %d with lineups, %d errors", counts.Parsed, counts.Events, counts.Found, counts.Errors))

	case PhaseLinkArtists:
		counts, missing, err := e.linkLineups(ctx, func(done, total int) {
			r.publish(itemUpdate(phase, done, total, r.at(float64(done)/float64(total)), "events"), "")
		}, func(entry models.LineupEntry, itemErr error) {
			r.log("warn", "%s: %v", entry.Name, itemErr)
		})
		r.stats.LinksCreated, r.stats.LinksExisting = counts.Created, counts.Existing
		r.stats.MissingArtists = len(missing)
		r.stats.LinkErrors = counts.Errors
		r.missing = missing
		if err != nil {
			return err
		}
		r.done(phase, fmt.Sprintf("%d links created, %d lineup artists missing, %d errors", counts.Created, len(missing), counts.Errors))

	case PhaseEnrichArtists:
		counts, err := e.EnrichBatch(ctx, e.enrichBatchSize, func(done, total int, name string, itemErr error) {
			r.stats.ArtistsToEnrich = total
			if itemErr != nil {
				r.stats.EnrichmentErrors++
				r.log("warn", "%s: %v", name, itemErr)
			} else {
				r.stats.ArtistsEnriched++
			}
			r.publish(itemUpdate(phase, done, total, r.at(float64(done)/float64(total)), name), name)
		})
		r.stats.ArtistsToEnrich = counts.Selected
		r.stats.ArtistsEnriched, r.stats.EnrichmentErrors = counts.Enriched, counts.Errors
		if err != nil {
			return err
		}
		r.done(phase, fmt.Sprintf("%d enriched, %d errors", counts.Enriched, counts.Errors))

	case PhaseCheckMissing:
		report, err := e.CheckMissing(r.missing)
		if err != nil {
			return err
		}
		r.report = report
		r.stats.ArtistsWithoutEvents = report.ArtistsWithoutEvents
		r.stats.PotentialEvents = PotentialEvents(report)
		r.done(phase, fmt.Sprintf("%d artists without events, %d potential events", report.ArtistsWithoutEvents, r.stats.PotentialEvents))

	default:
		return fmt.Errorf("%w: unknown phase %d", shared.ErrInvalidArgument, phase)
	}
	return nil
}

func (r *run) setLineupStats(c LineupCounts) {
	r.stats.EventsWithURL = c.Events
	r.stats.LineupsParsed = c.Parsed
	r.stats.LineupsFound = c.Found
	r.stats.LineupEntries = c.Entries
	r.stats.LineupErrors = c.Errors
}

func (r *run) done(phase Phase, summary string) {
	r.publish(phaseDoneUpdate(phase, r.at(1), summary), "")
	r.log("info", "%s: %s", phase, summary)
}

// EnrichCounts tallies an enrichment batch.
type EnrichCounts struct {
	Selected int `json:"selected"`
	Enriched int `json:"enriched"`
	Errors   int `json:"errors"`
}

// EnrichBatch enriches up to limit artists that have no catalog id, spacing calls by the
// engine's request interval. onItem is called after every artist.
// Per-artist failures are counted; only cancellation stops the batch.
func (e *Engine) EnrichBatch(ctx context.Context, limit int, onItem func(done, total int, name string, err error)) (EnrichCounts, error) {
	if e.enricher == nil {
		return EnrichCounts{}, fmt.Errorf("%w: enrichment requires Spotify credentials", shared.ErrMissingCredentials)
	}
	if limit <= 0 {
		limit = e.enrichBatchSize
	}

	artists, err := e.artists.ListUnenriched(limit)
	if err != nil {
		return EnrichCounts{}, fmt.Errorf("failed to list unenriched artists: %w", err)
	}

	counts := EnrichCounts{Selected: len(artists)}
	limiter := newLimiter(e.enrichInterval)
	for i, artist := range artists {
		if err := limiter.Wait(ctx); err != nil {
			return counts, err
		}

		_, err := e.enricher.EnrichArtist(ctx, artist.ID, "", false)
		if err != nil && isFatal(err) {
			return counts, err
		}
		if err != nil {
			counts.Errors++
			e.logger.Warn("enrichment failed", "artist", artist.Title, "error", err)
		} else {
			counts.Enriched++
		}
		if onItem != nil {
			onItem(i+1, len(artists), artist.Title, err)
		}
	}
	return counts, nil
}
