package services

import (
	"context"

	"github.com/desertthunder/lineup/internal/models"
)

// ProgramSource fetches artists, events and lineups from the festival.
// [FestivalClient] is the production implementation.
type ProgramSource interface {
	// FetchAllArtists paginates every artist, invoking onPage after each page.
	FetchAllArtists(ctx context.Context, dates DateRange, onPage PageFunc) ([]RawRecord, error)

	// FetchAllEvents paginates every event, invoking onPage after each page.
	FetchAllEvents(ctx context.Context, dates DateRange, onPage PageFunc) ([]RawRecord, error)

	// FetchAndParseEventPage extracts the lineup from an event detail page.
	// A page with no lineup links yields an empty slice, not an error.
	FetchAndParseEventPage(ctx context.Context, pageURL, eventExternalID string) ([]models.LineupEntry, error)

	// ResolveURL turns a site-relative path into an absolute URL.
	ResolveURL(ref string) string
}

// EnrichmentProvider is the subset of the music catalog API used for enrichment.
// [SpotifyService] is the production implementation.
type EnrichmentProvider interface {
	// SearchArtist returns the best match for name, or nil when nothing matches.
	SearchArtist(ctx context.Context, name string) (*SpotifyArtist, error)

	// GetArtistTopTracks returns top tracks, falling back across markets until one has a preview.
	GetArtistTopTracks(ctx context.Context, artistID, market string) ([]SpotifyTrack, error)

	// GetAudioFeatures returns features for the given tracks; an empty result means unavailable.
	GetAudioFeatures(ctx context.Context, trackIDs []string) ([]SpotifyAudioFeatures, error)

	// GetRelatedArtists returns related artists; unknown artists yield an empty list.
	GetRelatedArtists(ctx context.Context, artistID string) ([]SpotifyArtist, error)
}

var (
	_ ProgramSource      = (*FestivalClient)(nil)
	_ EnrichmentProvider = (*SpotifyService)(nil)
)
