package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
	tu "github.com/desertthunder/lineup/internal/testing"
)

func strPtr(s string) *string { return &s }

func newTestEngine(t *testing.T, src services.ProgramSource, provider services.EnrichmentProvider) (*Engine, *shared.Database) {
	t.Helper()
	db := tu.NewTestDB(t)
	deps := Deps{
		DB:       db,
		Source:   src,
		Sessions: NewMemoryStore(),
		Config:   shared.DefaultConfig(),
		Logger:   shared.NewLogger(io.Discard),
	}
	if provider != nil {
		deps.Provider = provider
	}
	e := NewEngine(deps)
	e.SetLineupDelay(0)
	e.SetEnrichInterval(0)
	return e, db
}

func eventURL(id string) string {
	return "https://festival.test/event/" + id
}

// festivalSource has four artists over two pages and three events with detail pages.
func festivalSource() *tu.FakeSource {
	return &tu.FakeSource{
		ArtistPages: [][]services.RawRecord{
			{tu.ArtistRecord("1", "Robyn"), tu.ArtistRecord("2", "Koze"), tu.ArtistRecord("3", "Unknown Act")},
			{tu.ArtistRecord("4", "Moderat")},
		},
		EventPages: [][]services.RawRecord{
			{
				tu.EventRecord("101", "Robyn", ""),
				tu.EventRecord("102", "Late Night", "DJ Koze"),
				tu.EventRecord("103", "Moderat Live Show", ""),
			},
		},
		Lineups: map[string][]models.LineupEntry{
			eventURL("101"): {{Name: "Robyn", ExternalArtistID: "1"}},
			eventURL("102"): {{Name: "koze"}, {Name: "Ghost Artist", ExternalArtistID: "99"}},
		},
		LineupErrors: map[string]error{
			eventURL("103"): fmt.Errorf("%w: status 503", shared.ErrAPIRequest),
		},
	}
}

func festivalProvider() *tu.FakeEnricher {
	robyn := tu.SpotifyArtist("Robyn", "swedish pop")
	koze := tu.SpotifyArtist("Koze", "deep house")
	return &tu.FakeEnricher{
		Artists: map[string]*services.SpotifyArtist{"Robyn": robyn, "Koze": koze},
		Tracks: map[string][]services.SpotifyTrack{
			robyn.ID: {{ID: "t1", Name: "Dancing On My Own", PreviewURL: strPtr("https://p.scdn.co/mp3-preview/t1")}},
		},
	}
}

func TestOptionsPhases(t *testing.T) {
	t.Run("all phases in order", func(t *testing.T) {
		got := AllPhases().Phases()
		want := []Phase{PhaseSyncArtists, PhaseSyncEvents, PhaseParseLineups, PhaseLinkArtists, PhaseEnrichArtists, PhaseCheckMissing}
		if len(got) != len(want) {
			t.Fatalf("Phases() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("phase %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("disabled phases are skipped", func(t *testing.T) {
		got := Options{SyncEvents: true, CheckMissing: true}.Phases()
		if len(got) != 2 || got[0] != PhaseSyncEvents || got[1] != PhaseCheckMissing {
			t.Errorf("Phases() = %v", got)
		}
	})

	t.Run("Set round-trips through Phases", func(t *testing.T) {
		var o Options
		for _, p := range AllPhases().Phases() {
			o.Set(p, true)
		}
		if o != AllPhases() {
			t.Errorf("expected all phases enabled, got %+v", o)
		}
		o.Set(PhaseEnrichArtists, false)
		o.Set(PhaseComplete, false)
		if o.EnrichArtists || len(o.Phases()) != 5 {
			t.Errorf("expected enrichment disabled, got %+v", o)
		}
	})

	t.Run("names", func(t *testing.T) {
		if PhaseComplete.String() != "Complete" {
			t.Errorf("PhaseComplete = %q", PhaseComplete.String())
		}
		if PhaseParseLineups.Key() != "parse_lineups" {
			t.Errorf("PhaseParseLineups key = %q", PhaseParseLineups.Key())
		}
	})
}

func TestRunSimple(t *testing.T) {
	t.Run("second run adds nothing", func(t *testing.T) {
		e, db := newTestEngine(t, festivalSource(), nil)
		ctx := context.Background()

		first, err := e.RunSimple(ctx, services.DateRange{}, nil)
		if err != nil {
			t.Fatalf("RunSimple() error = %v", err)
		}
		if first.TotalItemsFetched != 7 || first.NewItemsAdded != 7 || first.ItemsUpdated != 0 {
			t.Errorf("unexpected first run %+v", first)
		}
		if first.Status != models.SyncStatusCompleted || first.CompletedAt == nil {
			t.Errorf("expected completed history, got %+v", first)
		}

		second, err := e.RunSimple(ctx, services.DateRange{}, nil)
		if err != nil {
			t.Fatalf("RunSimple() error = %v", err)
		}
		if second.NewItemsAdded != 0 || second.ItemsUpdated != 7 {
			t.Errorf("expected only updates on second run, got %+v", second)
		}

		artists, _ := repositories.NewArtistRepository(db).Count()
		events, _ := repositories.NewEventRepository(db).Count()
		if artists != 4 || events != 3 {
			t.Errorf("expected 4 artists and 3 events, got %d and %d", artists, events)
		}

		history, err := e.History(0)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) != 2 {
			t.Errorf("expected 2 history rows, got %d", len(history))
		}
	})

	t.Run("page failure marks history failed", func(t *testing.T) {
		src := festivalSource()
		src.PageErr = fmt.Errorf("%w: page 2", shared.ErrServiceUnavailable)
		e, _ := newTestEngine(t, src, nil)

		h, err := e.RunSimple(context.Background(), services.DateRange{}, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
		if h.Status != models.SyncStatusFailed || h.ErrorMessage == "" {
			t.Errorf("expected failed history, got %+v", h)
		}
		if h.NewItemsAdded != 4 {
			t.Errorf("expected artists from delivered pages to be kept, got %d", h.NewItemsAdded)
		}
	})

	t.Run("bad records are skipped", func(t *testing.T) {
		src := &tu.FakeSource{
			ArtistPages: [][]services.RawRecord{{tu.ArtistRecord("1", "Robyn"), {"title": "no id"}}},
		}
		e, _ := newTestEngine(t, src, nil)

		h, err := e.RunSimple(context.Background(), services.DateRange{}, nil)
		if err != nil {
			t.Fatalf("RunSimple() error = %v", err)
		}
		if h.TotalItemsFetched != 2 || h.NewItemsAdded != 1 {
			t.Errorf("unexpected history %+v", h)
		}
	})

	t.Run("progress channel", func(t *testing.T) {
		e, _ := newTestEngine(t, festivalSource(), nil)
		progress := make(chan ProgressUpdate, 32)

		if _, err := e.RunSimple(context.Background(), services.DateRange{}, progress); err != nil {
			t.Fatalf("RunSimple() error = %v", err)
		}
		close(progress)

		var last ProgressUpdate
		n := 0
		for u := range progress {
			last = u
			n++
		}
		if n == 0 || last.Phase != PhaseComplete || last.Progress != 100 {
			t.Errorf("expected updates ending in Complete, got %d updates, last %+v", n, last)
		}
	})
}

func TestRunComprehensive(t *testing.T) {
	t.Run("all phases complete", func(t *testing.T) {
		e, db := newTestEngine(t, festivalSource(), festivalProvider())
		ctx := context.Background()

		id, err := e.PrepareComprehensive("sync-1", AllPhases())
		if err != nil {
			t.Fatalf("PrepareComprehensive() error = %v", err)
		}
		stats, err := e.RunComprehensive(ctx, id, AllPhases(), nil)
		if err != nil {
			t.Fatalf("RunComprehensive() error = %v", err)
		}

		snap, err := e.Sessions().Get(id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if snap.Phase != "Complete" || snap.Progress != 100 || !snap.Completed || snap.Error != "" {
			t.Errorf("unexpected final snapshot phase=%q progress=%v completed=%v error=%q",
				snap.Phase, snap.Progress, snap.Completed, snap.Error)
		}

		final, ok := snap.Stats.(SyncStats)
		if !ok {
			t.Fatalf("expected SyncStats, got %T", snap.Stats)
		}
		if final.ArtistsEnriched+final.EnrichmentErrors != 4 {
			t.Errorf("enriched + errors = %d, want 4", final.ArtistsEnriched+final.EnrichmentErrors)
		}
		if final.ArtistsEnriched != 2 || final.ArtistsToEnrich != 4 {
			t.Errorf("unexpected enrichment stats %+v", final)
		}
		if final != stats {
			t.Errorf("session stats %+v differ from returned %+v", final, stats)
		}

		if stats.ArtistsCreated != 4 || stats.EventsCreated != 3 {
			t.Errorf("unexpected sync stats %+v", stats)
		}
		if stats.EventsWithURL != 3 || stats.LineupsParsed != 2 || stats.LineupErrors != 1 || stats.LineupsFound != 2 {
			t.Errorf("unexpected lineup stats %+v", stats)
		}
		if stats.LinksCreated != 2 || stats.MissingArtists != 1 {
			t.Errorf("unexpected link stats %+v", stats)
		}
		if stats.ArtistsWithoutEvents != 2 || stats.PotentialEvents != 1 {
			t.Errorf("unexpected gap stats %+v", stats)
		}

		report, ok := snap.Report.(*models.GapReport)
		if !ok {
			t.Fatalf("expected gap report, got %T", snap.Report)
		}
		if len(report.MissingArtists) != 1 || report.MissingArtists[0].Name != "Ghost Artist" {
			t.Errorf("unexpected missing artists %+v", report.MissingArtists)
		}
		if len(report.Suggestions) != 1 || report.Suggestions[0].ArtistName != "Moderat" {
			t.Errorf("unexpected suggestions %+v", report.Suggestions)
		}

		links := repositories.NewLinkRepository(db)
		count, _ := links.Count()
		if count != 2 {
			t.Errorf("suggestions must not create links, got %d links", count)
		}

		history, _ := e.History(1)
		if len(history) != 1 || history[0].Kind != models.SyncKindComprehensive || history[0].SessionID != id {
			t.Fatalf("expected comprehensive history row, got %+v", history)
		}
		if history[0].Status != models.SyncStatusCompleted || history[0].TotalItemsFetched != 7 {
			t.Errorf("unexpected history %+v", history[0])
		}
		if snap.HistoryID != history[0].ID {
			t.Errorf("session history id = %d, want %d", snap.HistoryID, history[0].ID)
		}
	})

	t.Run("rerun keeps links unique", func(t *testing.T) {
		e, db := newTestEngine(t, festivalSource(), festivalProvider())
		opts := Options{SyncArtists: true, SyncEvents: true, ParseLineups: true, LinkArtists: true}

		for i := range 2 {
			id, err := e.PrepareComprehensive(fmt.Sprintf("run-%d", i), opts)
			if err != nil {
				t.Fatalf("PrepareComprehensive() error = %v", err)
			}
			if _, err := e.RunComprehensive(context.Background(), id, opts, nil); err != nil {
				t.Fatalf("RunComprehensive() error = %v", err)
			}
		}

		count, _ := repositories.NewLinkRepository(db).Count()
		if count != 2 {
			t.Errorf("expected 2 links after two runs, got %d", count)
		}
	})

	t.Run("failed link write is counted and skipped", func(t *testing.T) {
		e, db := newTestEngine(t, festivalSource(), nil)
		_, err := db.Exec(`
			CREATE TRIGGER reject_robyn_link BEFORE INSERT ON artist_events
			WHEN NEW.artist_id = (SELECT id FROM artists WHERE external_id = '1')
			BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`)
		if err != nil {
			t.Fatalf("failed to create trigger: %v", err)
		}

		opts := Options{SyncArtists: true, SyncEvents: true, ParseLineups: true, LinkArtists: true, CheckMissing: true}
		id, _ := e.PrepareComprehensive("", opts)
		stats, err := e.RunComprehensive(context.Background(), id, opts, nil)
		if err != nil {
			t.Fatalf("RunComprehensive() error = %v", err)
		}
		if stats.LinkErrors != 1 || stats.LinksCreated != 1 || stats.MissingArtists != 1 {
			t.Errorf("unexpected link stats %+v", stats)
		}

		snap, _ := e.Sessions().Get(id)
		if !snap.Completed || snap.Error != "" || snap.Phase != PhaseComplete.String() {
			t.Errorf("expected completed run, got phase=%q error=%q", snap.Phase, snap.Error)
		}
		if _, ok := snap.Report.(*models.GapReport); !ok {
			t.Error("expected later phases to run after a failed link")
		}
		warned := false
		for _, l := range snap.Logs {
			if l.Level == "warn" && strings.Contains(l.Message, "disk I/O error") {
				warned = true
			}
		}
		if !warned {
			t.Error("expected the failed entry in the session log")
		}
	})

	t.Run("failing phase halts the run", func(t *testing.T) {
		src := festivalSource()
		src.PageErr = fmt.Errorf("%w: upstream down", shared.ErrServiceUnavailable)
		e, db := newTestEngine(t, src, festivalProvider())

		id, _ := e.PrepareComprehensive("", AllPhases())
		_, err := e.RunComprehensive(context.Background(), id, AllPhases(), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}

		snap, _ := e.Sessions().Get(id)
		if !snap.Completed || snap.Error == "" || snap.Phase != PhaseSyncArtists.String() {
			t.Errorf("unexpected failed snapshot %+v", snap)
		}

		events, _ := repositories.NewEventRepository(db).Count()
		if events != 0 {
			t.Errorf("later phases ran: %d events stored", events)
		}
		artists, _ := repositories.NewArtistRepository(db).Count()
		if artists != 4 {
			t.Errorf("earlier writes should be kept, got %d artists", artists)
		}
		if len(src.ParsedPages()) != 0 {
			t.Error("lineup phase should not run")
		}

		history, _ := e.History(1)
		if len(history) != 1 || history[0].Status != models.SyncStatusFailed {
			t.Errorf("expected failed history, got %+v", history)
		}
	})

	t.Run("enrichment without credentials fails fast", func(t *testing.T) {
		e, _ := newTestEngine(t, festivalSource(), nil)

		_, err := e.PrepareComprehensive("", AllPhases())
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		if _, err := e.PrepareComprehensive("", Options{SyncArtists: true}); err != nil {
			t.Errorf("expected sync without enrichment to be accepted, got %v", err)
		}
	})

	t.Run("lineup batches all run", func(t *testing.T) {
		src := &tu.FakeSource{Lineups: map[string][]models.LineupEntry{}}
		var page []services.RawRecord
		for i := range 25 {
			page = append(page, tu.EventRecord(fmt.Sprint(200+i), fmt.Sprintf("Show %d", i), ""))
		}
		src.EventPages = [][]services.RawRecord{page}
		e, _ := newTestEngine(t, src, nil)

		opts := Options{SyncEvents: true, ParseLineups: true}
		id, _ := e.PrepareComprehensive("", opts)
		progress := make(chan ProgressUpdate, 128)
		stats, err := e.RunComprehensive(context.Background(), id, opts, progress)
		if err != nil {
			t.Fatalf("RunComprehensive() error = %v", err)
		}
		close(progress)

		if len(src.ParsedPages()) != 25 || stats.LineupsParsed != 25 || stats.LineupsFound != 0 {
			t.Errorf("unexpected lineup stats %+v (fetched %d)", stats, len(src.ParsedPages()))
		}

		batches := 0
		for u := range progress {
			if u.Phase == PhaseParseLineups && u.Total == 3 {
				batches++
			}
		}
		if batches != 3 {
			t.Errorf("expected 3 batch updates, got %d", batches)
		}
	})
}

func TestRunLinking(t *testing.T) {
	setup := func(t *testing.T) *Engine {
		e, _ := newTestEngine(t, festivalSource(), nil)
		if _, err := e.RunSimple(context.Background(), services.DateRange{}, nil); err != nil {
			t.Fatalf("RunSimple() error = %v", err)
		}
		return e
	}

	t.Run("all", func(t *testing.T) {
		e := setup(t)
		e.Sessions().Create("s1", KindLink)

		summary, err := e.RunLinking(context.Background(), "s1", LinkRequest{Mode: LinkModeAll})
		if err != nil {
			t.Fatalf("RunLinking() error = %v", err)
		}
		if summary.TotalArtists != 4 || summary.NewLinks != 3 {
			t.Errorf("unexpected summary %+v", summary)
		}

		snap, _ := e.Sessions().Get("s1")
		p := LinkProgressOf(snap)
		if !p.Completed || p.Progress != 100 || p.Stats == nil {
			t.Errorf("unexpected progress %+v", p)
		}
	})

	t.Run("single", func(t *testing.T) {
		e := setup(t)
		e.Sessions().Create("s2", KindLink)

		artist, err := e.artists.GetByExternalID("2")
		if err != nil {
			t.Fatalf("GetByExternalID() error = %v", err)
		}
		summary, err := e.RunLinking(context.Background(), "s2", LinkRequest{Mode: LinkModeSingle, ArtistID: artist.ID})
		if err != nil {
			t.Fatalf("RunLinking() error = %v", err)
		}
		if summary.TotalArtists != 1 || summary.NewLinks != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("unknown artist fails the session", func(t *testing.T) {
		e := setup(t)
		e.Sessions().Create("s3", KindLink)

		_, err := e.RunLinking(context.Background(), "s3", LinkRequest{Mode: LinkModeSingle, ArtistID: 999})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		snap, _ := e.Sessions().Get("s3")
		if !snap.Completed || snap.Error == "" {
			t.Errorf("expected failed session, got %+v", snap)
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		e := setup(t)
		if _, err := e.StartLinking("", LinkRequest{Mode: "some"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := e.StartLinking("", LinkRequest{Mode: LinkModeSingle}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

// pageCall records when one detail page fetch started and finished.
type pageCall struct {
	start, end time.Time
}

// slowSource holds every detail page fetch open for hold.
type slowSource struct {
	*tu.FakeSource
	hold time.Duration

	mu    sync.Mutex
	calls []pageCall
}

func (s *slowSource) FetchAndParseEventPage(ctx context.Context, pageURL, eventExternalID string) ([]models.LineupEntry, error) {
	start := time.Now()
	time.Sleep(s.hold)
	lineup, err := s.FakeSource.FetchAndParseEventPage(ctx, pageURL, eventExternalID)

	s.mu.Lock()
	s.calls = append(s.calls, pageCall{start: start, end: time.Now()})
	s.mu.Unlock()
	return lineup, err
}

// clockedEnricher records when each catalog search was made.
type clockedEnricher struct {
	*tu.FakeEnricher

	mu       sync.Mutex
	searched []time.Time
}

func (c *clockedEnricher) SearchArtist(ctx context.Context, name string) (*services.SpotifyArtist, error) {
	c.mu.Lock()
	c.searched = append(c.searched, time.Now())
	c.mu.Unlock()
	return c.FakeEnricher.SearchArtist(ctx, name)
}

func TestPacing(t *testing.T) {
	t.Run("lineup batches run concurrently and in order", func(t *testing.T) {
		const delay = 20 * time.Millisecond
		var page []services.RawRecord
		for i := range 25 {
			page = append(page, tu.EventRecord(fmt.Sprint(300+i), fmt.Sprintf("Show %d", i), ""))
		}
		src := &slowSource{FakeSource: &tu.FakeSource{EventPages: [][]services.RawRecord{page}}, hold: 50 * time.Millisecond}
		e, _ := newTestEngine(t, src, nil)
		e.SetLineupDelay(delay)

		opts := Options{SyncEvents: true, ParseLineups: true}
		id, _ := e.PrepareComprehensive("", opts)
		if _, err := e.RunComprehensive(context.Background(), id, opts, nil); err != nil {
			t.Fatalf("RunComprehensive() error = %v", err)
		}

		calls := src.calls
		if len(calls) != 25 {
			t.Fatalf("expected 25 page fetches, got %d", len(calls))
		}
		slices.SortFunc(calls, func(a, b pageCall) int { return a.start.Compare(b.start) })

		var batches [][]pageCall
		for i := 0; i < len(calls); i += DefaultLineupBatchSize {
			batches = append(batches, calls[i:min(i+DefaultLineupBatchSize, len(calls))])
		}
		if len(batches) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(batches))
		}

		for b, batch := range batches {
			lastStart, firstEnd := batch[0].start, batch[0].end
			for _, c := range batch {
				if c.start.After(lastStart) {
					lastStart = c.start
				}
				if c.end.Before(firstEnd) {
					firstEnd = c.end
				}
			}
			if !lastStart.Before(firstEnd) {
				t.Errorf("batch %d: fetches were not in flight together", b+1)
			}

			if b == 0 {
				continue
			}
			prevEnd := batches[b-1][0].end
			for _, c := range batches[b-1] {
				if c.end.After(prevEnd) {
					prevEnd = c.end
				}
			}
			if gap := batch[0].start.Sub(prevEnd); gap < delay {
				t.Errorf("batch %d started %v after batch %d finished, want at least %v", b+1, gap, b, delay)
			}
		}
	})

	t.Run("enrichment calls are spaced", func(t *testing.T) {
		const interval = 25 * time.Millisecond
		provider := &clockedEnricher{FakeEnricher: &tu.FakeEnricher{}}
		e, db := newTestEngine(t, &tu.FakeSource{}, provider)
		e.SetEnrichInterval(interval)
		for _, name := range []string{"Robyn", "Koze", "Moderat", "Kraftwerk"} {
			seedArtist(t, db, name)
		}

		start := time.Now()
		counts, err := e.EnrichBatch(context.Background(), 0, nil)
		if err != nil {
			t.Fatalf("EnrichBatch() error = %v", err)
		}
		if counts.Selected != 4 || len(provider.searched) != 4 {
			t.Fatalf("expected 4 searches, got %d (selected %d)", len(provider.searched), counts.Selected)
		}
		for i, at := range provider.searched {
			if earliest := time.Duration(i)*interval - time.Millisecond; at.Sub(start) < earliest {
				t.Errorf("search %d made %v after start, want at least %v", i+1, at.Sub(start), earliest)
			}
		}
	})

	t.Run("enrichment batch is capped", func(t *testing.T) {
		provider := &tu.FakeEnricher{}
		e, db := newTestEngine(t, &tu.FakeSource{}, provider)
		repo := repositories.NewArtistRepository(db)
		for i := range DefaultEnrichBatchSize + 5 {
			if _, err := repo.Upsert(&models.Artist{ExternalID: fmt.Sprint(i), Title: fmt.Sprintf("Artist %d", i)}); err != nil {
				t.Fatalf("failed to seed artist: %v", err)
			}
		}

		opts := Options{EnrichArtists: true}
		id, _ := e.PrepareComprehensive("", opts)
		stats, err := e.RunComprehensive(context.Background(), id, opts, nil)
		if err != nil {
			t.Fatalf("RunComprehensive() error = %v", err)
		}
		if stats.ArtistsToEnrich != DefaultEnrichBatchSize {
			t.Errorf("ArtistsToEnrich = %d, want %d", stats.ArtistsToEnrich, DefaultEnrichBatchSize)
		}
		if n := len(provider.Searches()); n != DefaultEnrichBatchSize {
			t.Errorf("expected %d searches, got %d", DefaultEnrichBatchSize, n)
		}
	})
}
