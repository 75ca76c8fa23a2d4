package shared

import (
	"errors"
	"testing"
)

func TestRebind(t *testing.T) {
	tt := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "sqlite keeps placeholders",
			driver: DriverSQLite,
			query:  "SELECT * FROM artists WHERE id = ? AND title = ?",
			want:   "SELECT * FROM artists WHERE id = ? AND title = ?",
		},
		{
			name:   "postgres numbers placeholders",
			driver: DriverPostgres,
			query:  "SELECT * FROM artists WHERE id = ? AND title = ?",
			want:   "SELECT * FROM artists WHERE id = $1 AND title = $2",
		},
		{
			name:   "postgres ignores quoted question marks",
			driver: DriverPostgres,
			query:  "SELECT '?' FROM events WHERE id = ?",
			want:   "SELECT '?' FROM events WHERE id = $1",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &Database{Driver: tc.driver}
			if got := db.Rebind(tc.query); got != tc.want {
				t.Errorf("Rebind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOpenDatabase(t *testing.T) {
	t.Run("in-memory sqlite", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if db.Driver != DriverSQLite {
			t.Errorf("expected driver %s, got %s", DriverSQLite, db.Driver)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := OpenDatabase("mysql", "root@/db")
		if !errors.Is(err, ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := OpenDatabase(DriverPostgres, "")
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
