package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/lineup/internal/matching"
	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

// Link modes accepted by [Engine.StartLinking].
const (
	LinkModeAll    = "all"
	LinkModeSingle = "single"
)

// Confidence of lineup-derived links by how the entry was resolved.
const (
	lineupIDConfidence   = 1.0
	lineupNameConfidence = 0.95
)

// LinkRequest selects what a linking session matches.
type LinkRequest struct {
	Mode     string
	ArtistID int64
}

// LinkProgress is the polling view of a linking session.
type LinkProgress struct {
	Progress  float64 `json:"progress"`
	Message   string  `json:"message"`
	Stats     any     `json:"stats"`
	Completed bool    `json:"completed"`
	Error     string  `json:"error,omitempty"`
}

// LinkProgressOf projects a session onto [LinkProgress].
func LinkProgressOf(s Session) LinkProgress {
	return LinkProgress{
		Progress:  s.Progress,
		Message:   s.Message,
		Stats:     s.Stats,
		Completed: s.Completed,
		Error:     s.Error,
	}
}

// LineupLinkCounts tallies lineup-based linking.
type LineupLinkCounts struct {
	Events   int `json:"events"`
	Entries  int `json:"entries"`
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Missing  int `json:"missing"`
	Errors   int `json:"errors"`
}

// linkLineups links the artists named in parsed lineups to their events.
// Entries that resolve to no stored artist are returned, deduplicated, as missing.
// A failed lookup or write is counted, passed to onErr and skipped; only listing the
// events or cancellation stops the phase.
func (e *Engine) linkLineups(ctx context.Context, report func(done, total int), onErr func(entry models.LineupEntry, err error)) (LineupLinkCounts, []models.LineupEntry, error) {
	events, err := e.events.ListWithLineup()
	if err != nil {
		return LineupLinkCounts{}, nil, fmt.Errorf("failed to list events: %w", err)
	}

	counts := LineupLinkCounts{Events: len(events)}
	var missing []models.LineupEntry
	seen := make(map[string]bool)

	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return counts, missing, err
		}
		for _, entry := range event.RawData.ParsedLineup {
			counts.Entries++

			artist, resolvedBy, err := e.resolveEntry(entry)
			if errors.Is(err, shared.ErrNotFound) {
				counts.Missing++
				key := entry.ExternalArtistID + "|" + strings.ToLower(entry.Name)
				if !seen[key] {
					seen[key] = true
					missing = append(missing, entry)
				}
				continue
			}
			if err != nil {
				e.lineupLinkFailed(&counts, event, entry, err, onErr)
				continue
			}

			confidence := lineupNameConfidence
			if resolvedBy == "external_id" {
				confidence = lineupIDConfidence
			}
			created, err := e.links.Create(&models.ArtistEventLink{
				ArtistID:   artist.ID,
				EventID:    event.ID,
				Confidence: confidence,
				Source:     models.LinkSourceLineup,
				MatchDetails: map[string]any{
					"lineup_entry":       entry.Name,
					"external_artist_id": entry.ExternalArtistID,
					"resolved_by":        resolvedBy,
				},
			})
			if err != nil {
				e.lineupLinkFailed(&counts, event, entry, err, onErr)
				continue
			}
			if created {
				counts.Created++
				metrics.RecordLinkCreated(models.LinkSourceLineup)
			} else {
				counts.Existing++
			}
		}
		if report != nil {
			report(i+1, len(events))
		}
	}
	return counts, missing, nil
}

func (e *Engine) lineupLinkFailed(counts *LineupLinkCounts, event *models.Event, entry models.LineupEntry, err error, onErr func(models.LineupEntry, error)) {
	counts.Errors++
	e.logger.Warn("lineup link failed", "event", event.ExternalID, "entry", entry.Name, "error", err)
	if onErr != nil {
		onErr(entry, err)
	}
}

// resolveEntry finds the artist for a lineup entry by external id, then by name.
func (e *Engine) resolveEntry(entry models.LineupEntry) (*models.Artist, string, error) {
	if entry.ExternalArtistID != "" {
		artist, err := e.artists.GetByExternalID(entry.ExternalArtistID)
		if err == nil {
			return artist, "external_id", nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, "", err
		}
	}
	if strings.TrimSpace(entry.Name) == "" {
		return nil, "", fmt.Errorf("%w: lineup entry without name", shared.ErrNotFound)
	}
	artist, err := e.artists.FindByName(entry.Name)
	if err != nil {
		return nil, "", err
	}
	return artist, "name", nil
}

// StartLinking creates a linking session and runs it in the background.
// An empty sessionID gets a generated one.
func (e *Engine) StartLinking(sessionID string, req LinkRequest) (string, error) {
	if err := validateLinkRequest(req); err != nil {
		return "", err
	}
	if sessionID == "" {
		sessionID = shared.GenerateID()
	}
	if _, err := e.sessions.Create(sessionID, KindLink); err != nil {
		return "", err
	}

	go func() {
		_, _ = e.RunLinking(e.base, sessionID, req)
	}()
	return sessionID, nil
}

func validateLinkRequest(req LinkRequest) error {
	switch req.Mode {
	case LinkModeAll:
		return nil
	case LinkModeSingle:
		if req.ArtistID <= 0 {
			return fmt.Errorf("%w: artistId is required for single mode", shared.ErrMissingArgument)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown link mode %q", shared.ErrInvalidInput, req.Mode)
	}
}

// RunLinking matches artists to events by name and reports into an existing session.
// The session is completed and scheduled for expiry whatever the outcome.
func (e *Engine) RunLinking(ctx context.Context, sessionID string, req LinkRequest) (matching.Summary, error) {
	update := func(fn func(*Session)) {
		if err := e.sessions.Update(sessionID, fn); err != nil {
			e.logger.Warn("failed to update session", "session", sessionID, "error", err)
		}
	}
	defer func() {
		if err := e.sessions.Expire(sessionID, e.linkTTL); err != nil {
			e.logger.Warn("failed to expire session", "session", sessionID, "error", err)
		}
	}()

	update(func(s *Session) {
		s.Phase = PhaseLinkArtists.String()
		s.Message = "Loading artists and events"
		s.Log("info", "linking started (mode %s)", req.Mode)
	})

	summary, err := e.link(ctx, req, func(progress float64, message string) {
		update(func(s *Session) {
			s.Progress = progress
			s.Message = message
		})
	})
	if err != nil {
		update(func(s *Session) {
			s.Phase = PhaseFailed.String()
			s.Completed = true
			s.Error = err.Error()
			s.Message = "Linking failed"
			s.Log("error", "%v", err)
		})
		return summary, err
	}

	update(func(s *Session) {
		s.Phase = PhaseComplete.String()
		s.Progress = 100
		s.Completed = true
		s.Stats = summary
		s.Message = fmt.Sprintf("Linked %d artists: %d matches, %d new links", summary.TotalArtists, summary.TotalMatches, summary.NewLinks)
		s.Log("info", "%s", s.Message)
	})
	return summary, nil
}

func (e *Engine) link(ctx context.Context, req LinkRequest, onProgress matching.ProgressFunc) (matching.Summary, error) {
	if err := validateLinkRequest(req); err != nil {
		return matching.Summary{}, err
	}
	if req.Mode == LinkModeAll {
		return e.matcher.LinkAllArtistsToEvents(ctx, onProgress)
	}

	artist, err := e.artists.Get(req.ArtistID)
	if err != nil {
		return matching.Summary{}, err
	}
	onProgress(0, fmt.Sprintf("Linking %s", artist.Title))
	return e.matcher.LinkArtist(artist)
}
