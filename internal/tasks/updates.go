package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase    Phase   // Operation phase
	Step     int     // Current step number within phase
	Total    int     // Total steps in this phase
	Progress float64 // Overall progress in [0,100]
	Message  string  // Human-readable message for display
	Data     any     // Optional phase-specific data for advanced UIs
}

// Phase enumerates the stages of a sync run.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseSyncArtists
	PhaseSyncEvents
	PhaseParseLineups
	PhaseLinkArtists
	PhaseEnrichArtists
	PhaseCheckMissing
	PhaseComplete
	PhaseFailed
)

// String returns the display name used in session snapshots.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "Starting"
	case PhaseSyncArtists:
		return "Syncing Artists"
	case PhaseSyncEvents:
		return "Syncing Events"
	case PhaseParseLineups:
		return "Parsing Lineups"
	case PhaseLinkArtists:
		return "Linking Artists"
	case PhaseEnrichArtists:
		return "Enriching Artists"
	case PhaseCheckMissing:
		return "Checking Missing"
	case PhaseComplete:
		return "Complete"
	case PhaseFailed:
		return "Failed"
	default:
		return ""
	}
}

// Key returns the snake_case name used for metrics labels.
func (p Phase) Key() string {
	switch p {
	case PhaseSyncArtists:
		return "sync_artists"
	case PhaseSyncEvents:
		return "sync_events"
	case PhaseParseLineups:
		return "parse_lineups"
	case PhaseLinkArtists:
		return "link_artists"
	case PhaseEnrichArtists:
		return "enrich_artists"
	case PhaseCheckMissing:
		return "check_missing"
	default:
		return "other"
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func phaseStartedUpdate(phase Phase, progress float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    phase,
		Progress: progress,
		Message:  fmt.Sprintf("%s...", phase),
	}
}

func pageUpdate(phase Phase, page, items int, progress float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    phase,
		Step:     page + 1,
		Progress: progress,
		Message:  fmt.Sprintf("Page %d: %d items", page+1, items),
	}
}

func batchUpdate(phase Phase, step, total int, progress float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    phase,
		Step:     step,
		Total:    total,
		Progress: progress,
		Message:  fmt.Sprintf("[%d/%d] batches", step, total),
	}
}

func itemUpdate(phase Phase, step, total int, progress float64, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    phase,
		Step:     step,
		Total:    total,
		Progress: progress,
		Message:  fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func phaseDoneUpdate(phase Phase, progress float64, summary string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    phase,
		Progress: progress,
		Message:  fmt.Sprintf("%s: %s", phase, summary),
	}
}

func completeUpdate(stats SyncStats) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PhaseComplete,
		Progress: 100,
		Message:  "Sync complete",
		Data:     stats,
	}
}

func failedUpdate(phase Phase, progress float64, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PhaseFailed,
		Progress: progress,
		Message:  fmt.Sprintf("%s failed: %v", phase, err),
		Data:     err,
	}
}
