package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
)

// LineupCounts tallies the lineup phase.
type LineupCounts struct {
	Events  int `json:"events"`
	Parsed  int `json:"parsed"`
	Found   int `json:"withLineup"`
	Entries int `json:"entries"`
	Errors  int `json:"errors"`
}

type lineupResult struct {
	event  *models.Event
	lineup []models.LineupEntry
	err    error
}

// batchReporter receives progress after each lineup batch.
type batchReporter func(batch, batches int, counts LineupCounts)

// parseLineups fetches detail pages for every event with a URL and stores the lineups.
//
// Events are handled in batches: pages within a batch are fetched concurrently, batches
// run in order, and the engine's lineup delay separates consecutive batches. A failed page
// is counted and does not stop the phase.
func (e *Engine) parseLineups(ctx context.Context, report batchReporter) (LineupCounts, error) {
	events, err := e.events.ListWithURL()
	if err != nil {
		return LineupCounts{}, fmt.Errorf("failed to list events: %w", err)
	}

	counts := LineupCounts{Events: len(events)}
	size := e.lineupBatchSize
	batches := (len(events) + size - 1) / size

	for b := 0; b < batches; b++ {
		if b > 0 {
			if err := sleep(ctx, e.lineupDelay); err != nil {
				return counts, err
			}
		}

		batch := events[b*size : min((b+1)*size, len(events))]
		for _, r := range e.fetchLineups(ctx, batch) {
			if r.err != nil {
				if isFatal(r.err) {
					return counts, r.err
				}
				counts.Errors++
				metrics.RecordLineupParsed("error")
				e.logger.Warn("lineup fetch failed", "event", r.event.ExternalID, "url", r.event.URL, "error", r.err)
				continue
			}

			if err := e.events.SaveLineup(r.event.ID, r.lineup, time.Now().UTC()); err != nil {
				counts.Errors++
				metrics.RecordLineupParsed("error")
				e.logger.Warn("failed to save lineup", "event", r.event.ExternalID, "error", err)
				continue
			}

			counts.Parsed++
			counts.Entries += len(r.lineup)
			if len(r.lineup) > 0 {
				counts.Found++
				metrics.RecordLineupParsed("found")
			} else {
				metrics.RecordLineupParsed("empty")
			}
		}

		if report != nil {
			report(b+1, batches, counts)
		}
	}
	return counts, nil
}

// fetchLineups fetches one batch concurrently. Results keep the batch order.
func (e *Engine) fetchLineups(ctx context.Context, batch []*models.Event) []lineupResult {
	results := make([]lineupResult, len(batch))
	var wg sync.WaitGroup
	for i, event := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lineup, err := e.source.FetchAndParseEventPage(ctx, event.URL, event.ExternalID)
			results[i] = lineupResult{event: event, lineup: lineup, err: err}
		}()
	}
	wg.Wait()
	return results
}
