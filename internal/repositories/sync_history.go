package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

const historyColumns = `
	id, kind, session_id, started_at, completed_at, status,
	total_items_fetched, new_items_added, items_updated, error_message`

// SyncHistoryRepository persists [models.SyncHistory] rows.
type SyncHistoryRepository struct {
	db *shared.Database
}

// NewSyncHistoryRepository creates a new SyncHistoryRepository with the given database connection
func NewSyncHistoryRepository(db *shared.Database) *SyncHistoryRepository {
	return &SyncHistoryRepository{db: db}
}

// Create inserts a history row and sets its ID.
func (r *SyncHistoryRepository) Create(h *models.SyncHistory) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_history (kind, session_id, started_at, completed_at, status, total_items_fetched, new_items_added, items_updated, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := r.db.QueryRow(r.db.Rebind(query),
		h.Kind, h.SessionID, h.StartedAt, nullTime(h.CompletedAt), h.Status,
		h.TotalItemsFetched, h.NewItemsAdded, h.ItemsUpdated, h.ErrorMessage,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sync history: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a history row.
func (r *SyncHistoryRepository) Update(h *models.SyncHistory) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_history
		SET completed_at = ?, status = ?, total_items_fetched = ?, new_items_added = ?, items_updated = ?, error_message = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(r.db.Rebind(query),
		nullTime(h.CompletedAt), h.Status, h.TotalItemsFetched, h.NewItemsAdded, h.ItemsUpdated, h.ErrorMessage, h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync history %d", shared.ErrNotFound, h.ID)
	}
	return nil
}

// Get retrieves a history row by ID
func (r *SyncHistoryRepository) Get(id int64) (*models.SyncHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM sync_history WHERE id = ?`
	h, err := scanHistory(r.db.QueryRow(r.db.Rebind(query), id))
	if err != nil {
		return nil, notFound(err, "sync history", id)
	}
	return h, nil
}

// List retrieves the most recent history rows, newest first.
func (r *SyncHistoryRepository) List(limit int) ([]*models.SyncHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + historyColumns + ` FROM sync_history ORDER BY started_at DESC, id DESC LIMIT ?`
	rows, err := r.db.Query(r.db.Rebind(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync history: %w", err)
	}
	defer rows.Close()

	history := []*models.SyncHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func scanHistory(s scanner) (*models.SyncHistory, error) {
	var (
		h         models.SyncHistory
		completed sql.NullTime
	)
	err := s.Scan(
		&h.ID, &h.Kind, &h.SessionID, &h.StartedAt, &completed, &h.Status,
		&h.TotalItemsFetched, &h.NewItemsAdded, &h.ItemsUpdated, &h.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		h.CompletedAt = &completed.Time
	}
	return &h, nil
}
