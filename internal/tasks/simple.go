package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/services"
)

// StartSimple records a running sync_history row and runs the simple sync in the background.
func (e *Engine) StartSimple(dates services.DateRange) (*models.SyncHistory, error) {
	h, err := e.beginHistory(models.SyncKindSimple, "")
	if err != nil {
		return nil, err
	}
	started := *h
	go func() {
		_, _ = e.runSimple(e.base, h, dates, nil)
	}()
	return &started, nil
}

// RunSimple syncs artists then events and records the outcome in sync_history.
func (e *Engine) RunSimple(ctx context.Context, dates services.DateRange, progress chan<- ProgressUpdate) (*models.SyncHistory, error) {
	h, err := e.beginHistory(models.SyncKindSimple, "")
	if err != nil {
		return nil, err
	}
	return e.runSimple(ctx, h, dates, progress)
}

func (e *Engine) runSimple(ctx context.Context, h *models.SyncHistory, dates services.DateRange, progress chan<- ProgressUpdate) (*models.SyncHistory, error) {
	logger := e.logger.With("history", h.ID)
	started := time.Now()

	sendProgress(progress, phaseStartedUpdate(PhaseSyncArtists, 0))
	artists, err := e.syncArtists(ctx, dates, func(page, items int) {
		sendProgress(progress, pageUpdate(PhaseSyncArtists, page, items, 25))
	})
	addCounts(h, artists)
	if err != nil {
		return h, e.finishHistory(h, fmt.Errorf("artist sync failed: %w", err))
	}

	sendProgress(progress, phaseStartedUpdate(PhaseSyncEvents, 50))
	events, err := e.syncEvents(ctx, dates, func(page, items int) {
		sendProgress(progress, pageUpdate(PhaseSyncEvents, page, items, 75))
	})
	addCounts(h, events)
	if err != nil {
		return h, e.finishHistory(h, fmt.Errorf("event sync failed: %w", err))
	}

	logger.Info("simple sync complete", "fetched", h.TotalItemsFetched, "new", h.NewItemsAdded,
		"updated", h.ItemsUpdated, "duration", time.Since(started))
	sendProgress(progress, ProgressUpdate{Phase: PhaseComplete, Progress: 100, Message: "Sync complete", Data: h})
	return h, e.finishHistory(h, nil)
}

func addCounts(h *models.SyncHistory, c SyncCounts) {
	h.TotalItemsFetched += c.Fetched
	h.NewItemsAdded += c.Created
	h.ItemsUpdated += c.Updated
}

func (e *Engine) beginHistory(kind, sessionID string) (*models.SyncHistory, error) {
	h := &models.SyncHistory{
		Kind:      kind,
		SessionID: sessionID,
		StartedAt: time.Now().UTC(),
		Status:    models.SyncStatusRunning,
	}
	if err := e.history.Create(h); err != nil {
		return nil, fmt.Errorf("failed to record sync start: %w", err)
	}
	return h, nil
}

// finishHistory marks h completed or failed and returns runErr.
func (e *Engine) finishHistory(h *models.SyncHistory, runErr error) error {
	now := time.Now().UTC()
	h.CompletedAt = &now
	if runErr != nil {
		h.Status = models.SyncStatusFailed
		h.ErrorMessage = runErr.Error()
		e.logger.Error("sync failed", "history", h.ID, "kind", h.Kind, "error", runErr)
	} else {
		h.Status = models.SyncStatusCompleted
	}
	if err := e.history.Update(h); err != nil {
		e.logger.Error("failed to record sync outcome", "history", h.ID, "error", err)
	}
	return runErr
}
