package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lineup/internal/shared"
	"github.com/urfave/cli/v3"
)

// EnrichArtist enriches one artist with Spotify metadata.
func (r *Runner) EnrichArtist(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}
	enricher := engine.Enricher()
	if enricher == nil {
		return fmt.Errorf("%w: set credentials.spotify or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}

	result, err := enricher.EnrichArtist(ctx, cmd.Int64("id"), cmd.String("name"), cmd.Bool("force"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	a := result.Artist
	r.writePlainHeader("✓ " + a.Title)
	r.writePlain("Spotify ID: %s\nTop tracks: %d\n", result.SpotifyID, result.TrackCount)
	if a.Enrichment != nil {
		e := a.Enrichment
		r.writePlain("Popularity: %d\nFollowers: %d\nGenres: %v\n", e.Popularity, e.Followers, e.Genres)
		if e.TopTrackName != "" {
			r.writePlain("Top track: %s\n", e.TopTrackName)
		}
	}
	if result.Synthetic {
		r.writePlain("Audio features: estimated (catalog data unavailable)\n")
	}
	return nil
}

// EnrichBatch enriches artists that have no Spotify id yet.
func (r *Runner) EnrichBatch(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}

	counts, err := engine.EnrichBatch(ctx, int(cmd.Int("limit")), func(done, total int, name string, err error) {
		if err != nil {
			r.writePlain("  [%d/%d] ✗ %s: %v\n", done, total, name, err)
			return
		}
		r.writePlain("  [%d/%d] ✓ %s\n", done, total, name)
	})
	if err != nil {
		return err
	}
	r.writePlainln("Enriched %d/%d artists (%d errors)", counts.Enriched, counts.Selected, counts.Errors)
	return nil
}
