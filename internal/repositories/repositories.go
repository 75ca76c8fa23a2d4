package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/desertthunder/lineup/internal/shared"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// notFound converts [sql.ErrNoRows] into [shared.ErrNotFound].
func notFound(err error, entity string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v", shared.ErrNotFound, entity, key)
	}
	return fmt.Errorf("failed to scan %s: %w", entity, err)
}

// upsert inserts a row or, when the natural key already exists, runs update instead.
// Both statements must end in "RETURNING id".
func upsert(db *shared.Database, insert string, insertArgs []any, update string, updateArgs []any) (int64, bool, error) {
	var id int64
	err := db.QueryRow(db.Rebind(insert), insertArgs...).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	if err := db.QueryRow(db.Rebind(update), updateArgs...).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// encodeJSON marshals v for storage in a TEXT column.
func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeStrings reads a JSON string array column, tolerating NULL and empty values.
func decodeStrings(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// count runs a single-value COUNT query.
func count(db *shared.Database, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRow(db.Rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}
