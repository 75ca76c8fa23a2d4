// package models defines the data model for the festival catalog
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model is implemented by every record that is validated before it is persisted.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Artist is a performer listed by the festival.
//
// ExternalID, Title, Subtitle, URL and the country fields come from the source API and are never
// written by enrichment.
type Artist struct {
	ID           int64       `json:"id"`
	ExternalID   string      `json:"external_id"`
	Title        string      `json:"title"`
	Subtitle     string      `json:"subtitle"`
	URL          string      `json:"url"`
	CountryLabel string      `json:"country_label"`
	CountryValue string      `json:"country_value"`
	CountryCode  string      `json:"country_code"`
	Enrichment   *Enrichment `json:"enrichment,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate checks the source fields required for an upsert.
func (a *Artist) Validate() error {
	if strings.TrimSpace(a.ExternalID) == "" {
		return fmt.Errorf("artist external_id is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("artist title is required (external_id %s)", a.ExternalID)
	}
	return nil
}

// IsEnriched reports whether the artist already carries an enrichment id.
func (a *Artist) IsEnriched() bool {
	return a.Enrichment != nil && a.Enrichment.SpotifyID != ""
}

// Enrichment holds metadata fetched from Spotify for an artist.
type Enrichment struct {
	SpotifyID          string         `json:"spotify_id"`
	SpotifyURL         string         `json:"spotify_url"`
	Genres             []string       `json:"genres"`
	Popularity         int            `json:"popularity"`
	Followers          int            `json:"followers"`
	ImageURL           string         `json:"image_url"`
	TopTrackName       string         `json:"top_track_name"`
	TopTrackPreviewURL string         `json:"top_track_preview_url"`
	RelatedArtists     []string       `json:"related_artists"`
	Features           *AudioFeatures `json:"features,omitempty"`
	FeaturesSynthetic  bool           `json:"features_synthetic"`
	EnrichedAt         time.Time      `json:"enriched_at"`
}

// AudioFeatures are per-artist means over top-track audio features.
type AudioFeatures struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
}

// LineupEntry is one performer extracted from an event detail page.
type LineupEntry struct {
	Name             string `json:"name"`
	ExternalArtistID string `json:"external_artist_id"`
}

// EventRawData is the metadata blob stored alongside an event.
type EventRawData struct {
	ParsedLineup   []LineupEntry `json:"parsed_lineup,omitempty"`
	LineupParsedAt *time.Time    `json:"lineup_parsed_at,omitempty"`
}

// Event is a program item listed by the festival.
type Event struct {
	ID         int64        `json:"id"`
	ExternalID string       `json:"external_id"`
	Title      string       `json:"title"`
	Subtitle   string       `json:"subtitle"`
	URL        string       `json:"url"`
	StartDate  *time.Time   `json:"start_date,omitempty"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	VenueName  string       `json:"venue_name"`
	Categories string       `json:"categories"`
	GenreTags  []string     `json:"genre_tags"`
	SoldOut    bool         `json:"sold_out"`
	RawData    EventRawData `json:"raw_data"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Validate checks the source fields required for an upsert.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.ExternalID) == "" {
		return fmt.Errorf("event external_id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event title is required (external_id %s)", e.ExternalID)
	}
	if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
		return fmt.Errorf("event %s ends before it starts", e.ExternalID)
	}
	return nil
}

// Link sources record which step inferred an association.
const (
	LinkSourceNameMatch = "name_match"
	LinkSourceLineup    = "lineup"
)

// Confidence bucket thresholds.
const (
	HighConfidence   = 0.9
	MediumConfidence = 0.75
)

// ArtistEventLink associates an artist with an event. At most one exists per pair.
type ArtistEventLink struct {
	ID           int64          `json:"id"`
	ArtistID     int64          `json:"artist_id"`
	EventID      int64          `json:"event_id"`
	Confidence   float64        `json:"confidence"`
	Source       string         `json:"source"`
	MatchDetails map[string]any `json:"match_details"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks the link's foreign keys and confidence range.
func (l *ArtistEventLink) Validate() error {
	if l.ArtistID <= 0 || l.EventID <= 0 {
		return fmt.Errorf("link requires artist and event ids (got %d, %d)", l.ArtistID, l.EventID)
	}
	if l.Confidence < 0 || l.Confidence > 1 {
		return fmt.Errorf("link confidence %.3f out of range [0,1]", l.Confidence)
	}
	if l.Source == "" {
		return fmt.Errorf("link source is required")
	}
	return nil
}

// Bucket returns "high", "medium" or "low" for the link's confidence.
func (l *ArtistEventLink) Bucket() string {
	return ConfidenceBucket(l.Confidence)
}

// ConfidenceBucket classifies a confidence score.
func ConfidenceBucket(c float64) string {
	switch {
	case c >= HighConfidence:
		return "high"
	case c >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// LinkedEvent is an event together with the confidence of its link to an artist.
type LinkedEvent struct {
	Event
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// LinkedArtist is an artist together with the confidence of its link to an event.
type LinkedArtist struct {
	Artist
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// LinkStats aggregates link rows by confidence bucket.
type LinkStats struct {
	Total         int `json:"total"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	LinkedArtists int `json:"linked_artists"`
	LinkedEvents  int `json:"linked_events"`
}

// Sync kinds.
const (
	SyncKindSimple        = "simple"
	SyncKindComprehensive = "comprehensive"
)

// Sync statuses.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncHistory is the durable audit record for a sync run.
type SyncHistory struct {
	ID                int64      `json:"id"`
	Kind              string     `json:"kind"`
	SessionID         string     `json:"session_id,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Status            string     `json:"status"`
	TotalItemsFetched int        `json:"total_items_fetched"`
	NewItemsAdded     int        `json:"new_items_added"`
	ItemsUpdated      int        `json:"items_updated"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// Validate checks kind and status.
func (h *SyncHistory) Validate() error {
	switch h.Kind {
	case SyncKindSimple, SyncKindComprehensive:
	default:
		return fmt.Errorf("unknown sync kind %q", h.Kind)
	}
	switch h.Status {
	case SyncStatusRunning, SyncStatusCompleted, SyncStatusFailed:
	default:
		return fmt.Errorf("unknown sync status %q", h.Status)
	}
	return nil
}

// UpsertResult reports whether an upsert inserted a new row.
type UpsertResult struct {
	ID      int64
	Created bool
}

// EventSuggestion is an event that mentions an artist who has no links.
type EventSuggestion struct {
	EventID    int64   `json:"event_id"`
	Title      string  `json:"title"`
	Subtitle   string  `json:"subtitle,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ArtistSuggestion lists potential events for an unlinked artist.
type ArtistSuggestion struct {
	ArtistID   int64             `json:"artist_id"`
	ArtistName string            `json:"artist_name"`
	Events     []EventSuggestion `json:"events"`
}

// GapReport summarizes catalog gaps found after linking.
// Suggestions are for review only and are never written as links.
type GapReport struct {
	GeneratedAt          time.Time          `json:"generated_at"`
	ArtistsWithoutEvents int                `json:"artists_without_events"`
	MissingArtists       []LineupEntry      `json:"missing_artists"`
	Suggestions          []ArtistSuggestion `json:"suggestions"`
}
