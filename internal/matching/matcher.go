package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/desertthunder/lineup/internal/shared"
)

// EventMatch is a candidate event for an artist.
type EventMatch struct {
	Event *models.Event `json:"event"`
	Score
}

// ArtistMatch is a candidate artist for an event.
type ArtistMatch struct {
	Artist *models.Artist `json:"artist"`
	Score
}

// ProgressFunc receives progress in [0,100] and a status message.
type ProgressFunc func(progress float64, message string)

// Summary aggregates a bulk linking run.
type Summary struct {
	TotalArtists int `json:"totalArtists"`
	TotalMatches int `json:"totalMatches"`
	NewLinks     int `json:"newLinks"`
	High         int `json:"highConfidence"`
	Medium       int `json:"mediumConfidence"`
	Low          int `json:"lowConfidence"`
	Errors       int `json:"errors"`
}

func (s *Summary) add(conf float64) {
	s.TotalMatches++
	switch models.ConfidenceBucket(conf) {
	case "high":
		s.High++
	case "medium":
		s.Medium++
	default:
		s.Low++
	}
}

// Matcher infers artist/event links from event titles and subtitles.
type Matcher struct {
	artists       *repositories.ArtistRepository
	events        *repositories.EventRepository
	links         *repositories.LinkRepository
	minConfidence float64
	logger        *log.Logger
}

// NewMatcher creates a Matcher. A minConfidence outside (0,1] uses [DefaultMinConfidence].
func NewMatcher(db *shared.Database, minConfidence float64, logger *log.Logger) *Matcher {
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{
		artists:       repositories.NewArtistRepository(db),
		events:        repositories.NewEventRepository(db),
		links:         repositories.NewLinkRepository(db),
		minConfidence: minConfidence,
		logger:        shared.WithLogger(logger, "component", "matcher"),
	}
}

// MinConfidence returns the threshold below which matches are discarded.
func (m *Matcher) MinConfidence() float64 { return m.minConfidence }

// MatchEvents scores artist against events without touching the database.
// Results are sorted by confidence, highest first.
func (m *Matcher) MatchEvents(artist *models.Artist, events []*models.Event) []EventMatch {
	var matches []EventMatch
	for _, event := range events {
		s := ScoreEvent(artist.Title, event)
		if s.Confidence < m.minConfidence {
			continue
		}
		matches = append(matches, EventMatch{Event: event, Score: s})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// FindEventsForArtist returns every stored event whose title or subtitle mentions the artist.
func (m *Matcher) FindEventsForArtist(artist *models.Artist) ([]EventMatch, error) {
	events, err := m.events.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return m.MatchEvents(artist, events), nil
}

// GetEventArtists returns every stored artist whose name appears in the event.
func (m *Matcher) GetEventArtists(event *models.Event) ([]ArtistMatch, error) {
	artists, err := m.artists.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}

	var matches []ArtistMatch
	for _, artist := range artists {
		s := ScoreEvent(artist.Title, event)
		if s.Confidence < m.minConfidence {
			continue
		}
		matches = append(matches, ArtistMatch{Artist: artist, Score: s})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches, nil
}

// LinkArtist persists links for one artist's matches. Existing pairs are left untouched.
func (m *Matcher) LinkArtist(artist *models.Artist) (Summary, error) {
	events, err := m.events.List()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list events: %w", err)
	}
	summary := Summary{TotalArtists: 1}
	err = m.linkMatches(artist, m.MatchEvents(artist, events), &summary)
	return summary, err
}

func (m *Matcher) linkMatches(artist *models.Artist, matches []EventMatch, summary *Summary) error {
	for _, match := range matches {
		summary.add(match.Confidence)
		created, err := m.links.Create(&models.ArtistEventLink{
			ArtistID:     artist.ID,
			EventID:      match.Event.ID,
			Confidence:   match.Confidence,
			Source:       models.LinkSourceNameMatch,
			MatchDetails: match.Details(artist.Title),
		})
		if err != nil {
			return fmt.Errorf("failed to link artist %d to event %d: %w", artist.ID, match.Event.ID, err)
		}
		if created {
			summary.NewLinks++
			metrics.RecordLinkCreated(models.LinkSourceNameMatch)
		}
	}
	return nil
}

// LinkAllArtistsToEvents matches every artist against every event and stores new links.
// onProgress is called after each artist. An artist whose links fail to save is counted
// in Summary.Errors and the run continues.
func (m *Matcher) LinkAllArtistsToEvents(ctx context.Context, onProgress ProgressFunc) (Summary, error) {
	artists, err := m.artists.List()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list artists: %w", err)
	}
	events, err := m.events.List()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list events: %w", err)
	}

	summary := Summary{TotalArtists: len(artists)}
	if len(artists) == 0 && onProgress != nil {
		onProgress(100, "No artists to link")
	}

	for i, artist := range artists {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		matches := m.MatchEvents(artist, events)
		if err := m.linkMatches(artist, matches, &summary); err != nil {
			summary.Errors++
			m.logger.Warn("linking failed", "artist", artist.Title, "error", err)
		}

		if onProgress != nil {
			progress := float64(i+1) / float64(len(artists)) * 100
			onProgress(progress, fmt.Sprintf("Processed %s (%d/%d), %d matches", artist.Title, i+1, len(artists), len(matches)))
		}
	}

	m.logger.Info("linking complete",
		"artists", summary.TotalArtists, "matches", summary.TotalMatches, "new", summary.NewLinks,
		"high", summary.High, "medium", summary.Medium, "low", summary.Low)
	return summary, nil
}
