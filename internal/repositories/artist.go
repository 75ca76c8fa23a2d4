package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

const artistColumns = `
	id, external_id, title, subtitle, url, country_label, country_value, country_code,
	spotify_id, spotify_url, genres, popularity, followers, image_url, top_track_name,
	top_track_preview_url, related_artists, danceability, energy, valence, tempo,
	acousticness, instrumentalness, speechiness, liveness, features_synthetic,
	enriched_at, created_at, updated_at`

// ArtistRepository persists [models.Artist] rows.
type ArtistRepository struct {
	db *shared.Database
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *shared.Database) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Upsert inserts the artist or updates its source fields when the external id already exists.
// Enrichment columns are never touched.
func (r *ArtistRepository) Upsert(artist *models.Artist) (models.UpsertResult, error) {
	if err := artist.Validate(); err != nil {
		return models.UpsertResult{}, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	insert := `
		INSERT INTO artists (external_id, title, title_key, subtitle, url, country_label, country_value, country_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`
	update := `
		UPDATE artists
		SET title = ?, title_key = ?, subtitle = ?, url = ?, country_label = ?, country_value = ?, country_code = ?, updated_at = ?
		WHERE external_id = ?
		RETURNING id
	`

	key := titleKey(artist.Title)
	id, created, err := upsert(r.db, insert, []any{
		artist.ExternalID, artist.Title, key, artist.Subtitle, artist.URL,
		artist.CountryLabel, artist.CountryValue, artist.CountryCode, now, now,
	}, update, []any{
		artist.Title, key, artist.Subtitle, artist.URL,
		artist.CountryLabel, artist.CountryValue, artist.CountryCode, now, artist.ExternalID,
	})
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to upsert artist %s: %w", artist.ExternalID, err)
	}

	artist.ID = id
	artist.UpdatedAt = now
	if created {
		artist.CreatedAt = now
	}
	return models.UpsertResult{ID: id, Created: created}, nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(id int64) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	return r.scanOne(r.db.QueryRow(r.db.Rebind(query), id), id)
}

// GetByExternalID retrieves an artist by the festival's id
func (r *ArtistRepository) GetByExternalID(externalID string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE external_id = ?`
	return r.scanOne(r.db.QueryRow(r.db.Rebind(query), externalID), externalID)
}

// FindByName retrieves the first artist whose title matches name case-insensitively.
//
// Matching runs on title_key, folded here with Unicode case rules because SQLite's
// LOWER only folds ASCII.
func (r *ArtistRepository) FindByName(name string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE title_key = ? ORDER BY id LIMIT 1`
	return r.scanOne(r.db.QueryRow(r.db.Rebind(query), titleKey(name)), name)
}

// titleKey is the case-folded lookup form of an artist title.
func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// List retrieves all artists ordered by id
func (r *ArtistRepository) List() ([]*models.Artist, error) {
	return r.query(`SELECT ` + artistColumns + ` FROM artists ORDER BY id`)
}

// ListUnenriched retrieves up to limit artists that have no enrichment id yet.
func (r *ArtistRepository) ListUnenriched(limit int) ([]*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE spotify_id IS NULL OR spotify_id = '' ORDER BY id LIMIT ?`
	return r.query(query, limit)
}

// ListWithoutLinks retrieves artists that have no linked events.
func (r *ArtistRepository) ListWithoutLinks() ([]*models.Artist, error) {
	query := `
		SELECT ` + artistColumns + ` FROM artists
		WHERE NOT EXISTS (SELECT 1 FROM artist_events ae WHERE ae.artist_id = artists.id)
		ORDER BY id
	`
	return r.query(query)
}

// Count returns the number of artists
func (r *ArtistRepository) Count() (int, error) {
	return count(r.db, `SELECT COUNT(*) FROM artists`)
}

// CountEnriched returns the number of artists that carry an enrichment id
func (r *ArtistRepository) CountEnriched() (int, error) {
	return count(r.db, `SELECT COUNT(*) FROM artists WHERE spotify_id IS NOT NULL AND spotify_id <> ''`)
}

// SaveEnrichment writes the enrichment columns for an artist.
// Source-of-truth columns are not part of the statement.
func (r *ArtistRepository) SaveEnrichment(id int64, e *models.Enrichment) error {
	genres, err := encodeJSON(e.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	related, err := encodeJSON(e.RelatedArtists)
	if err != nil {
		return fmt.Errorf("failed to encode related artists: %w", err)
	}

	var f [8]sql.NullFloat64
	if e.Features != nil {
		vals := []float64{
			e.Features.Danceability, e.Features.Energy, e.Features.Valence, e.Features.Tempo,
			e.Features.Acousticness, e.Features.Instrumentalness, e.Features.Speechiness, e.Features.Liveness,
		}
		for i, v := range vals {
			f[i] = sql.NullFloat64{Float64: v, Valid: true}
		}
	}

	if e.EnrichedAt.IsZero() {
		e.EnrichedAt = time.Now().UTC()
	}

	query := `
		UPDATE artists
		SET spotify_id = ?, spotify_url = ?, genres = ?, popularity = ?, followers = ?, image_url = ?,
			top_track_name = ?, top_track_preview_url = ?, related_artists = ?,
			danceability = ?, energy = ?, valence = ?, tempo = ?, acousticness = ?,
			instrumentalness = ?, speechiness = ?, liveness = ?, features_synthetic = ?, enriched_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(r.db.Rebind(query),
		e.SpotifyID, e.SpotifyURL, genres, e.Popularity, e.Followers, e.ImageURL,
		e.TopTrackName, e.TopTrackPreviewURL, related,
		f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7], e.FeaturesSynthetic, e.EnrichedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to save enrichment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: artist %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *ArtistRepository) query(query string, args ...any) ([]*models.Artist, error) {
	rows, err := r.db.Query(r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	artists := []*models.Artist{}
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artists: %w", err)
	}
	return artists, nil
}

func (r *ArtistRepository) scanOne(row *sql.Row, key any) (*models.Artist, error) {
	artist, err := scanArtist(row)
	if err != nil {
		return nil, notFound(err, "artist", key)
	}
	return artist, nil
}

func scanArtist(s scanner) (*models.Artist, error) {
	var (
		a                                    models.Artist
		spotifyID, spotifyURL, genres, image sql.NullString
		topTrack, preview, related           sql.NullString
		popularity, followers                sql.NullInt64
		dance, energy, valence, tempo        sql.NullFloat64
		acoustic, instrumental, speech, live sql.NullFloat64
		synthetic                            bool
		enrichedAt                           sql.NullTime
	)

	err := s.Scan(
		&a.ID, &a.ExternalID, &a.Title, &a.Subtitle, &a.URL, &a.CountryLabel, &a.CountryValue, &a.CountryCode,
		&spotifyID, &spotifyURL, &genres, &popularity, &followers, &image, &topTrack,
		&preview, &related, &dance, &energy, &valence, &tempo,
		&acoustic, &instrumental, &speech, &live, &synthetic,
		&enrichedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if !spotifyID.Valid || spotifyID.String == "" {
		return &a, nil
	}

	e := &models.Enrichment{
		SpotifyID:          spotifyID.String,
		SpotifyURL:         spotifyURL.String,
		Popularity:         int(popularity.Int64),
		Followers:          int(followers.Int64),
		ImageURL:           image.String,
		TopTrackName:       topTrack.String,
		TopTrackPreviewURL: preview.String,
		FeaturesSynthetic:  synthetic,
		EnrichedAt:         enrichedAt.Time,
	}
	if e.Genres, err = decodeStrings(genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	if e.RelatedArtists, err = decodeStrings(related); err != nil {
		return nil, fmt.Errorf("failed to decode related artists: %w", err)
	}
	if dance.Valid {
		e.Features = &models.AudioFeatures{
			Danceability:     dance.Float64,
			Energy:           energy.Float64,
			Valence:          valence.Float64,
			Tempo:            tempo.Float64,
			Acousticness:     acoustic.Float64,
			Instrumentalness: instrumental.Float64,
			Speechiness:      speech.Float64,
			Liveness:         live.Float64,
		}
	}

	a.Enrichment = e
	return &a, nil
}
