package tasks

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/lineup/internal/shared"
)

func TestMemoryStore(t *testing.T) {
	t.Run("new session reports not started", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.Create("s1", KindLink); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		s, err := store.Get("s1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		p := LinkProgressOf(s)
		if p.Progress != 0 || p.Message != "Not started" || p.Completed {
			t.Errorf("unexpected initial progress %+v", p)
		}
	})

	t.Run("duplicate and empty ids are rejected", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.Create("dup", KindComprehensive); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := store.Create("dup", KindComprehensive); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := store.Create("", KindComprehensive); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.Get("missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
		if err := store.Update("missing", func(*Session) {}); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
		if err := store.Expire("missing", time.Minute); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("update is visible and snapshots are copies", func(t *testing.T) {
		store := NewMemoryStore()
		store.Create("s", KindComprehensive)

		err := store.Update("s", func(s *Session) {
			s.Progress = 40
			s.Message = "halfway"
			s.Log("info", "step %d", 1)
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		snap, _ := store.Get("s")
		if snap.Progress != 40 || snap.Message != "halfway" || len(snap.Logs) != 1 {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		snap.Logs[0].Message = "changed"

		again, _ := store.Get("s")
		if again.Logs[0].Message != "step 1" {
			t.Error("snapshot shares log storage with the store")
		}
	})

	t.Run("sessions expire after ttl", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.now = func() time.Time { return now }

		store.Create("old", KindLink)
		store.Create("live", KindLink)
		if err := store.Expire("old", 5*time.Minute); err != nil {
			t.Fatalf("Expire() error = %v", err)
		}

		now = now.Add(4 * time.Minute)
		if _, err := store.Get("old"); err != nil {
			t.Errorf("session expired early: %v", err)
		}

		now = now.Add(2 * time.Minute)
		if _, err := store.Get("old"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected expired session to be gone, got %v", err)
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 live session, got %d", store.Len())
		}
	})

	t.Run("abandoned sessions are dropped when idle", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.now = func() time.Time { return now }

		store.Create("cold", KindComprehensive)
		store.Create("busy", KindComprehensive)

		now = now.Add(50 * time.Minute)
		if err := store.Update("busy", func(s *Session) { s.Progress = 40 }); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		now = now.Add(20 * time.Minute)
		if _, err := store.Get("cold"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected idle session to be gone, got %v", err)
		}
		if _, err := store.Get("busy"); err != nil {
			t.Errorf("expected recently updated session to survive, got %v", err)
		}
	})
}

func TestSessionLogRing(t *testing.T) {
	var s Session
	for i := range 150 {
		s.Log("info", "line %d", i)
	}

	if len(s.Logs) != maxSessionLogs {
		t.Fatalf("expected %d logs, got %d", maxSessionLogs, len(s.Logs))
	}
	if s.Logs[0].Message != "line 50" {
		t.Errorf("oldest log = %q, want line 50", s.Logs[0].Message)
	}
	if last := s.Logs[len(s.Logs)-1].Message; last != fmt.Sprintf("line %d", 149) {
		t.Errorf("newest log = %q", last)
	}
}
