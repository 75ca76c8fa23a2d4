package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

// LinkRepository persists [models.ArtistEventLink] rows.
type LinkRepository struct {
	db *shared.Database
}

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *shared.Database) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a link unless one already exists for the pair.
// Returns true when a row was written.
func (r *LinkRepository) Create(link *models.ArtistEventLink) (bool, error) {
	if err := link.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	details, err := encodeJSON(link.MatchDetails)
	if err != nil {
		return false, fmt.Errorf("failed to encode match details: %w", err)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO artist_events (artist_id, event_id, confidence, source, match_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (artist_id, event_id) DO NOTHING
	`
	result, err := r.db.Exec(r.db.Rebind(query),
		link.ArtistID, link.EventID, link.Confidence, link.Source, details, link.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// EventsForArtist resolves the events linked to an artist, highest confidence first.
func (r *LinkRepository) EventsForArtist(artistID int64) ([]models.LinkedEvent, error) {
	query := `
		SELECT ae.confidence, ae.source, ` + prefixed("e", eventColumns) + `
		FROM artist_events ae JOIN events e ON e.id = ae.event_id
		WHERE ae.artist_id = ?
		ORDER BY ae.confidence DESC, e.start_date, e.id
	`
	rows, err := r.db.Query(r.db.Rebind(query), artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked events: %w", err)
	}
	defer rows.Close()

	out := []models.LinkedEvent{}
	for rows.Next() {
		var (
			confidence float64
			source     string
		)
		event, err := scanEvent(prefixScanner{rows, []any{&confidence, &source}})
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked event: %w", err)
		}
		out = append(out, models.LinkedEvent{Event: *event, Confidence: confidence, Source: source})
	}
	return out, rows.Err()
}

// ArtistsForEvent resolves the artists linked to an event, highest confidence first.
func (r *LinkRepository) ArtistsForEvent(eventID int64) ([]models.LinkedArtist, error) {
	query := `
		SELECT ae.confidence, ae.source, ` + prefixed("a", artistColumns) + `
		FROM artist_events ae JOIN artists a ON a.id = ae.artist_id
		WHERE ae.event_id = ?
		ORDER BY ae.confidence DESC, a.title
	`
	rows, err := r.db.Query(r.db.Rebind(query), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked artists: %w", err)
	}
	defer rows.Close()

	out := []models.LinkedArtist{}
	for rows.Next() {
		var (
			confidence float64
			source     string
		)
		artist, err := scanArtist(prefixScanner{rows, []any{&confidence, &source}})
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked artist: %w", err)
		}
		out = append(out, models.LinkedArtist{Artist: *artist, Confidence: confidence, Source: source})
	}
	return out, rows.Err()
}

// Stats aggregates links by confidence bucket.
func (r *LinkRepository) Stats() (models.LinkStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN confidence >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN confidence >= ? AND confidence < ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN confidence < ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT artist_id),
			COUNT(DISTINCT event_id)
		FROM artist_events
	`

	var s models.LinkStats
	err := r.db.QueryRow(r.db.Rebind(query),
		models.HighConfidence, models.MediumConfidence, models.HighConfidence, models.MediumConfidence,
	).Scan(&s.Total, &s.High, &s.Medium, &s.Low, &s.LinkedArtists, &s.LinkedEvents)
	if err != nil {
		return s, fmt.Errorf("failed to compute link stats: %w", err)
	}
	return s, nil
}

// Count returns the number of link rows
func (r *LinkRepository) Count() (int, error) {
	return count(r.db, `SELECT COUNT(*) FROM artist_events`)
}

// prefixScanner scans leading columns into extra before handing the rest to an entity scanner.
type prefixScanner struct {
	rows  *sql.Rows
	extra []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(p.extra, dest...)...)
}

// prefixed qualifies each column in a comma separated list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
