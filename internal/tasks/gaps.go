package tasks

import (
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/lineup/internal/matching"
	"github.com/desertthunder/lineup/internal/models"
)

// CheckMissing builds a gap report for artists without any linked events.
//
// Events whose title or subtitle mention such an artist are listed as suggestions for
// review. No links are written.
func (e *Engine) CheckMissing(missing []models.LineupEntry) (*models.GapReport, error) {
	unlinked, err := e.artists.ListWithoutLinks()
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked artists: %w", err)
	}
	events, err := e.events.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	report := &models.GapReport{
		GeneratedAt:          time.Now().UTC(),
		ArtistsWithoutEvents: len(unlinked),
		MissingArtists:       missing,
		Suggestions:          []models.ArtistSuggestion{},
	}
	if report.MissingArtists == nil {
		report.MissingArtists = []models.LineupEntry{}
	}

	for _, artist := range unlinked {
		var candidates []models.EventSuggestion
		for _, event := range events {
			if !matching.ContainsName(event.Title+" / "+event.Subtitle, artist.Title) {
				continue
			}
			score := matching.ScoreEvent(artist.Title, event)
			candidates = append(candidates, models.EventSuggestion{
				EventID:    event.ID,
				Title:      event.Title,
				Subtitle:   event.Subtitle,
				Confidence: score.Confidence,
			})
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Confidence > candidates[j].Confidence
		})
		report.Suggestions = append(report.Suggestions, models.ArtistSuggestion{
			ArtistID:   artist.ID,
			ArtistName: artist.Title,
			Events:     candidates,
		})
	}
	return report, nil
}

// PotentialEvents counts suggested events across the report.
func PotentialEvents(r *models.GapReport) int {
	n := 0
	for _, s := range r.Suggestions {
		n += len(s.Events)
	}
	return n
}
