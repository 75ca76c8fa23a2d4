package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

const eventColumns = `
	id, external_id, title, subtitle, url, start_date, end_date, venue_name,
	categories, genre_tags, sold_out, raw_data, created_at, updated_at`

// EventRepository persists [models.Event] rows.
type EventRepository struct {
	db *shared.Database
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *shared.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Upsert inserts the event or updates its source fields when the external id already exists.
//
// raw_data is only written on insert so a re-sync keeps previously parsed lineups.
func (r *EventRepository) Upsert(event *models.Event) (models.UpsertResult, error) {
	if err := event.Validate(); err != nil {
		return models.UpsertResult{}, fmt.Errorf("validation failed: %w", err)
	}

	tags, err := encodeJSON(nonNil(event.GenreTags))
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to encode genre tags: %w", err)
	}
	raw, err := encodeJSON(event.RawData)
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to encode raw data: %w", err)
	}

	now := time.Now().UTC()
	start, end := nullTime(event.StartDate), nullTime(event.EndDate)
	insert := `
		INSERT INTO events (external_id, title, subtitle, url, start_date, end_date, venue_name, categories, genre_tags, sold_out, raw_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`
	update := `
		UPDATE events
		SET title = ?, subtitle = ?, url = ?, start_date = ?, end_date = ?, venue_name = ?,
			categories = ?, genre_tags = ?, sold_out = ?, updated_at = ?
		WHERE external_id = ?
		RETURNING id
	`

	id, created, err := upsert(r.db, insert, []any{
		event.ExternalID, event.Title, event.Subtitle, event.URL, start, end, event.VenueName,
		event.Categories, tags, event.SoldOut, raw, now, now,
	}, update, []any{
		event.Title, event.Subtitle, event.URL, start, end, event.VenueName,
		event.Categories, tags, event.SoldOut, now, event.ExternalID,
	})
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to upsert event %s: %w", event.ExternalID, err)
	}

	event.ID = id
	event.UpdatedAt = now
	if created {
		event.CreatedAt = now
	}
	return models.UpsertResult{ID: id, Created: created}, nil
}

// Get retrieves an event by ID
func (r *EventRepository) Get(id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return r.scanOne(r.db.QueryRow(r.db.Rebind(query), id), id)
}

// GetByExternalID retrieves an event by the festival's id
func (r *EventRepository) GetByExternalID(externalID string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE external_id = ?`
	return r.scanOne(r.db.QueryRow(r.db.Rebind(query), externalID), externalID)
}

// List retrieves all events ordered by start date then id
func (r *EventRepository) List() ([]*models.Event, error) {
	return r.query(`SELECT ` + eventColumns + ` FROM events ORDER BY start_date, id`)
}

// ListWithURL retrieves events that have a detail page to parse.
func (r *EventRepository) ListWithURL() ([]*models.Event, error) {
	return r.query(`SELECT ` + eventColumns + ` FROM events WHERE url <> '' ORDER BY id`)
}

// ListWithLineup retrieves events whose raw data carries a parsed lineup.
func (r *EventRepository) ListWithLineup() ([]*models.Event, error) {
	events, err := r.query(`SELECT ` + eventColumns + ` FROM events WHERE raw_data LIKE '%parsed_lineup%' ORDER BY id`)
	if err != nil {
		return nil, err
	}

	withLineup := events[:0]
	for _, e := range events {
		if len(e.RawData.ParsedLineup) > 0 {
			withLineup = append(withLineup, e)
		}
	}
	return withLineup, nil
}

// SaveLineup stores a parsed lineup on the event's raw data blob.
func (r *EventRepository) SaveLineup(id int64, lineup []models.LineupEntry, parsedAt time.Time) error {
	event, err := r.Get(id)
	if err != nil {
		return err
	}

	event.RawData.ParsedLineup = lineup
	event.RawData.LineupParsedAt = &parsedAt
	raw, err := encodeJSON(event.RawData)
	if err != nil {
		return fmt.Errorf("failed to encode raw data: %w", err)
	}

	query := `UPDATE events SET raw_data = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.Exec(r.db.Rebind(query), raw, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to save lineup for event %d: %w", id, err)
	}
	return nil
}

// Count returns the number of events
func (r *EventRepository) Count() (int, error) {
	return count(r.db, `SELECT COUNT(*) FROM events`)
}

func (r *EventRepository) query(query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.Query(r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) scanOne(row *sql.Row, key any) (*models.Event, error) {
	event, err := scanEvent(row)
	if err != nil {
		return nil, notFound(err, "event", key)
	}
	return event, nil
}

func scanEvent(s scanner) (*models.Event, error) {
	var (
		e          models.Event
		start, end sql.NullTime
		tags       sql.NullString
		raw        sql.NullString
	)

	err := s.Scan(
		&e.ID, &e.ExternalID, &e.Title, &e.Subtitle, &e.URL, &start, &end, &e.VenueName,
		&e.Categories, &tags, &e.SoldOut, &raw, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if start.Valid {
		e.StartDate = &start.Time
	}
	if end.Valid {
		e.EndDate = &end.Time
	}
	if e.GenreTags, err = decodeStrings(tags); err != nil {
		return nil, fmt.Errorf("failed to decode genre tags: %w", err)
	}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &e.RawData); err != nil {
			return nil, fmt.Errorf("failed to decode raw data: %w", err)
		}
	}
	return &e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
