package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/lineup/internal/matching"
	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
)

// Defaults applied when configuration leaves a value at zero.
const (
	DefaultLineupBatchSize   = 10
	DefaultLineupBatchDelay  = time.Second
	DefaultEnrichBatchSize   = 100
	DefaultRequestInterval   = 100 * time.Millisecond
	DefaultLinkSessionTTL    = 5 * time.Minute
	DefaultSyncSessionTTL    = 10 * time.Minute
	DefaultMarket            = "US"
	maxRelatedArtists        = 10
	maxFeatureTracks         = 10
	defaultHistoryListLength = 20
)

// SyncEngine defines the long-running catalog operations.
type SyncEngine interface {
	// RunSimple syncs artists and events and records a sync_history row.
	RunSimple(ctx context.Context, dates services.DateRange, progress chan<- ProgressUpdate) (*models.SyncHistory, error)

	// RunComprehensive executes the enabled phases in order, reporting into the session.
	RunComprehensive(ctx context.Context, sessionID string, opts Options, progress chan<- ProgressUpdate) (SyncStats, error)

	// RunLinking matches artists against event titles, reporting into the session.
	RunLinking(ctx context.Context, sessionID string, req LinkRequest) (matching.Summary, error)
}

// Deps are the collaborators of an [Engine].
type Deps struct {
	DB       *shared.Database
	Source   services.ProgramSource
	Provider services.EnrichmentProvider // nil when no credentials are configured
	Sessions SessionStore
	Config   *shared.Config
	Logger   *log.Logger
}

// Engine implements [SyncEngine] over the repositories, the program source and
// the enrichment provider.
type Engine struct {
	artists  *repositories.ArtistRepository
	events   *repositories.EventRepository
	links    *repositories.LinkRepository
	history  *repositories.SyncHistoryRepository
	source   services.ProgramSource
	enricher *Enricher
	matcher  *matching.Matcher
	sessions SessionStore

	lineupBatchSize int
	lineupDelay     time.Duration
	enrichBatchSize int
	enrichInterval  time.Duration
	linkTTL         time.Duration
	syncTTL         time.Duration

	// base is the context background runs derive from, independent of any request.
	base   context.Context
	logger *log.Logger
}

// NewEngine wires an Engine. A nil Config uses [shared.DefaultConfig].
func NewEngine(deps Deps) *Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewMemoryStore()
	}

	e := &Engine{
		artists:  repositories.NewArtistRepository(deps.DB),
		events:   repositories.NewEventRepository(deps.DB),
		links:    repositories.NewLinkRepository(deps.DB),
		history:  repositories.NewSyncHistoryRepository(deps.DB),
		source:   deps.Source,
		matcher:  matching.NewMatcher(deps.DB, cfg.Sync.LinkMinConfidence, logger),
		sessions: sessions,

		lineupBatchSize: orInt(cfg.Sync.LineupBatchSize, DefaultLineupBatchSize),
		lineupDelay:     orDuration(cfg.Sync.LineupBatchDelayMS, time.Millisecond, DefaultLineupBatchDelay),
		enrichBatchSize: orInt(cfg.Enrichment.BatchSize, DefaultEnrichBatchSize),
		enrichInterval:  orDuration(cfg.Enrichment.RequestIntervalMS, time.Millisecond, DefaultRequestInterval),
		linkTTL:         orDuration(cfg.Sync.LinkSessionTTLSeconds, time.Second, DefaultLinkSessionTTL),
		syncTTL:         orDuration(cfg.Sync.ComprehensiveSessionTTLSeconds, time.Second, DefaultSyncSessionTTL),

		base:   context.Background(),
		logger: shared.WithLogger(logger, "component", "sync"),
	}
	if deps.Provider != nil {
		e.enricher = NewEnricher(deps.DB, deps.Provider, cfg.Enrichment.Market, logger)
	}
	return e
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDuration(v int, unit, def time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * unit
	}
	return def
}

// SetLineupDelay overrides the pause between lineup batches.
func (e *Engine) SetLineupDelay(d time.Duration) { e.lineupDelay = d }

// SetEnrichInterval overrides the spacing between enrichment calls.
func (e *Engine) SetEnrichInterval(d time.Duration) { e.enrichInterval = d }

// Sessions returns the store progress is reported into.
func (e *Engine) Sessions() SessionStore { return e.sessions }

// Matcher returns the name matcher used for linking.
func (e *Engine) Matcher() *matching.Matcher { return e.matcher }

// Enricher returns the enricher, or nil when no provider is configured.
func (e *Engine) Enricher() *Enricher { return e.enricher }

// History returns recent sync_history rows, newest first.
func (e *Engine) History(limit int) ([]*models.SyncHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryListLength
	}
	return e.history.List(limit)
}

// SyncCounts tallies one entity's sync.
type SyncCounts struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// pageReporter receives per-page progress during a listing sync.
type pageReporter func(page, items int)

// syncArtists pages every artist from the source and upserts it.
// Bad records are counted and skipped. A failed page aborts the sync.
func (e *Engine) syncArtists(ctx context.Context, dates services.DateRange, report pageReporter) (SyncCounts, error) {
	var counts SyncCounts
	_, err := e.source.FetchAllArtists(ctx, dates, func(page int, items []services.RawRecord) error {
		for _, raw := range items {
			counts.Fetched++
			artist, err := services.CleanArtistData(raw, e.source.ResolveURL)
			if err != nil {
				e.countFailure(&counts, "artist", err)
				continue
			}
			res, err := e.artists.Upsert(artist)
			if err != nil {
				e.countFailure(&counts, "artist", err)
				continue
			}
			countUpsert(&counts, "artist", res)
		}
		if report != nil {
			report(page, len(items))
		}
		return ctx.Err()
	})
	return counts, err
}

// syncEvents pages every event from the source and upserts it.
func (e *Engine) syncEvents(ctx context.Context, dates services.DateRange, report pageReporter) (SyncCounts, error) {
	var counts SyncCounts
	_, err := e.source.FetchAllEvents(ctx, dates, func(page int, items []services.RawRecord) error {
		for _, raw := range items {
			counts.Fetched++
			event, err := services.CleanEventData(raw, e.source.ResolveURL)
			if err != nil {
				e.countFailure(&counts, "event", err)
				continue
			}
			res, err := e.events.Upsert(event)
			if err != nil {
				e.countFailure(&counts, "event", err)
				continue
			}
			countUpsert(&counts, "event", res)
		}
		if report != nil {
			report(page, len(items))
		}
		return ctx.Err()
	})
	return counts, err
}

func (e *Engine) countFailure(counts *SyncCounts, entity string, err error) {
	counts.Failed++
	metrics.RecordSyncedItem(entity, "failed")
	e.logger.Warn("skipping record", "entity", entity, "error", err)
}

func countUpsert(counts *SyncCounts, entity string, res models.UpsertResult) {
	if res.Created {
		counts.Created++
		metrics.RecordSyncedItem(entity, "created")
	} else {
		counts.Updated++
		metrics.RecordSyncedItem(entity, "updated")
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// newLimiter spaces calls interval apart. A zero interval never waits.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// isFatal reports errors that should stop a batch rather than count against one item.
func isFatal(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var _ SyncEngine = (*Engine)(nil)
