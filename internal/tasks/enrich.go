package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
)

// EnrichResult describes a completed enrichment.
type EnrichResult struct {
	Artist     *models.Artist `json:"artist"`
	SpotifyID  string         `json:"spotifyId"`
	TrackCount int            `json:"trackCount"`
	Synthetic  bool           `json:"featuresSynthetic"`
}

// Enricher augments stored artists with catalog metadata.
type Enricher struct {
	artists  *repositories.ArtistRepository
	provider services.EnrichmentProvider
	market   string
	logger   *log.Logger
}

// NewEnricher creates an Enricher. An empty market uses [DefaultMarket].
func NewEnricher(db *shared.Database, provider services.EnrichmentProvider, market string, logger *log.Logger) *Enricher {
	if market == "" {
		market = DefaultMarket
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Enricher{
		artists:  repositories.NewArtistRepository(db),
		provider: provider,
		market:   market,
		logger:   shared.WithLogger(logger, "component", "enricher"),
	}
}

// EnrichArtist looks the artist up in the catalog and writes the enrichment columns.
//
// name overrides the stored title as the search term when non-empty. Unless force is set,
// an artist that already has a catalog id is left alone and [shared.ErrAlreadyEnriched]
// is returned. Rate limiting surfaces as [shared.ErrRateLimited] from any step.
func (e *Enricher) EnrichArtist(ctx context.Context, artistID int64, name string, force bool) (*EnrichResult, error) {
	artist, err := e.artists.Get(artistID)
	if err != nil {
		return nil, err
	}
	if !force && artist.IsEnriched() {
		metrics.RecordEnrichment("skipped")
		return nil, fmt.Errorf("%w: artist %d (%s)", shared.ErrAlreadyEnriched, artist.ID, artist.Enrichment.SpotifyID)
	}
	if name == "" {
		name = artist.Title
	}

	enrichment, trackCount, err := e.lookup(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			metrics.RecordEnrichment("not_found")
		case errors.Is(err, shared.ErrRateLimited):
			metrics.RecordEnrichment("rate_limited")
		default:
			metrics.RecordEnrichment("error")
		}
		return nil, err
	}

	if err := e.artists.SaveEnrichment(artist.ID, enrichment); err != nil {
		metrics.RecordEnrichment("error")
		return nil, err
	}
	metrics.RecordEnrichment("success")

	updated, err := e.artists.Get(artist.ID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("enriched artist", "artist", artist.Title, "spotify_id", enrichment.SpotifyID,
		"tracks", trackCount, "synthetic", enrichment.FeaturesSynthetic)

	return &EnrichResult{
		Artist:     updated,
		SpotifyID:  enrichment.SpotifyID,
		TrackCount: trackCount,
		Synthetic:  enrichment.FeaturesSynthetic,
	}, nil
}

// lookup runs search, top tracks, audio features and related artists.
// Only search and rate limits are fatal; the later steps degrade to empty data.
func (e *Enricher) lookup(ctx context.Context, name string) (*models.Enrichment, int, error) {
	sp, err := e.provider.SearchArtist(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	if sp == nil {
		return nil, 0, fmt.Errorf("%w: no catalog match for %q", shared.ErrNotFound, name)
	}

	enrichment := &models.Enrichment{
		SpotifyID:  sp.ID,
		SpotifyURL: sp.ExternalURLs.Spotify,
		Genres:     sp.Genres,
		Popularity: sp.Popularity,
		Followers:  sp.Followers.Total,
		ImageURL:   sp.ImageURL(),
		EnrichedAt: time.Now().UTC(),
	}

	tracks, err := e.provider.GetArtistTopTracks(ctx, sp.ID, e.market)
	if err != nil {
		if errors.Is(err, shared.ErrRateLimited) {
			return nil, 0, err
		}
		e.logger.Warn("top tracks unavailable", "artist", name, "error", err)
	}
	if top := pickTopTrack(tracks); top != nil {
		enrichment.TopTrackName = top.Name
		if top.HasPreview() {
			enrichment.TopTrackPreviewURL = *top.PreviewURL
		}
	}

	features, err := e.features(ctx, tracks)
	if err != nil {
		return nil, 0, err
	}
	if features != nil {
		enrichment.Features = features
	} else {
		synthetic := services.SyntheticFeatures(sp.Genres, sp.Popularity)
		enrichment.Features = &synthetic
		enrichment.FeaturesSynthetic = true
	}

	related, err := e.provider.GetRelatedArtists(ctx, sp.ID)
	if err != nil {
		if errors.Is(err, shared.ErrRateLimited) {
			return nil, 0, err
		}
		e.logger.Warn("related artists unavailable", "artist", name, "error", err)
	}
	enrichment.RelatedArtists = []string{}
	for _, r := range related {
		if len(enrichment.RelatedArtists) == maxRelatedArtists {
			break
		}
		enrichment.RelatedArtists = append(enrichment.RelatedArtists, r.Name)
	}

	return enrichment, len(tracks), nil
}

// features averages measured audio features. A nil result means none were available.
func (e *Enricher) features(ctx context.Context, tracks []services.SpotifyTrack) (*models.AudioFeatures, error) {
	if len(tracks) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, min(len(tracks), maxFeatureTracks))
	for _, t := range tracks[:min(len(tracks), maxFeatureTracks)] {
		ids = append(ids, t.ID)
	}

	measured, err := e.provider.GetAudioFeatures(ctx, ids)
	if err != nil {
		if errors.Is(err, shared.ErrRateLimited) {
			return nil, err
		}
		e.logger.Warn("audio features unavailable", "error", err)
		return nil, nil
	}
	return services.AverageFeatures(measured), nil
}

// pickTopTrack prefers the first track with a preview clip.
func pickTopTrack(tracks []services.SpotifyTrack) *services.SpotifyTrack {
	for i := range tracks {
		if tracks[i].HasPreview() {
			return &tracks[i]
		}
	}
	if len(tracks) > 0 {
		return &tracks[0]
	}
	return nil
}
