package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/shared"
)

// Session kinds.
const (
	KindComprehensive = "comprehensive"
	KindLink          = "link"
)

// maxSessionLogs caps the per-session log ring.
const maxSessionLogs = 100

// idleSessionTTL drops sessions that never complete and stop receiving updates.
const idleSessionTTL = time.Hour

// NotStartedMessage is the message of a session nothing has reported on yet.
const NotStartedMessage = "Not started"

// LogEntry is one human-readable line in a session log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Session is a snapshot of a background operation's progress.
type Session struct {
	ID          string     `json:"sessionId"`
	Kind        string     `json:"kind"`
	Phase       string     `json:"phase"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message"`
	CurrentItem string     `json:"currentItem,omitempty"`
	Stats       any        `json:"stats"`
	Report      any        `json:"report,omitempty"`
	Logs        []LogEntry `json:"logs"`
	Completed   bool       `json:"completed"`
	Error       string     `json:"error,omitempty"`
	HistoryID   int64      `json:"historyId,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	expiresAt time.Time
}

// Log appends a line to the session log, dropping the oldest beyond the cap.
func (s *Session) Log(level, format string, args ...any) {
	s.Logs = append(s.Logs, LogEntry{Time: time.Now().UTC(), Level: level, Message: fmt.Sprintf(format, args...)})
	if over := len(s.Logs) - maxSessionLogs; over > 0 {
		s.Logs = append(s.Logs[:0:0], s.Logs[over:]...)
	}
}

func (s *Session) snapshot() Session {
	cp := *s
	cp.Logs = append([]LogEntry(nil), s.Logs...)
	return cp
}

// SessionStore keeps progress records for background operations.
type SessionStore interface {
	// Create registers a new session. It fails if id is already live.
	Create(id, kind string) (Session, error)

	// Get returns a copy of the session or [shared.ErrSessionNotFound].
	Get(id string) (Session, error)

	// Update applies fn to the session under the store's lock.
	Update(id string, fn func(*Session)) error

	// Expire schedules the session for removal after ttl.
	Expire(id string, ttl time.Duration) error
}

// MemoryStore is an in-process [SessionStore] with lazy TTL eviction.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), now: time.Now}
}

func (m *MemoryStore) Create(id, kind string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	if id == "" {
		return Session{}, fmt.Errorf("%w: session id is required", shared.ErrInvalidInput)
	}
	if _, ok := m.sessions[id]; ok {
		return Session{}, fmt.Errorf("%w: session %s already exists", shared.ErrInvalidInput, id)
	}

	now := m.now().UTC()
	s := &Session{
		ID:        id,
		Kind:      kind,
		Phase:     PhaseStarting.String(),
		Message:   NotStartedMessage,
		Logs:      []LogEntry{},
		StartedAt: now,
		UpdatedAt: now,
	}
	m.sessions[id] = s
	m.publish(kind)
	return s.snapshot(), nil
}

func (m *MemoryStore) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return s.snapshot(), nil
}

func (m *MemoryStore) Update(id string, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	wasCompleted := s.Completed
	fn(s)
	s.UpdatedAt = m.now().UTC()
	if s.Completed != wasCompleted {
		m.publish(s.Kind)
	}
	return nil
}

func (m *MemoryStore) Expire(id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	s.expiresAt = m.now().Add(ttl)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.sessions)
}

// sweep drops expired sessions and abandoned ones idle past [idleSessionTTL]. Callers hold mu.
func (m *MemoryStore) sweep() {
	now := m.now()
	for id, s := range m.sessions {
		expired := !s.expiresAt.IsZero() && now.After(s.expiresAt)
		idle := s.expiresAt.IsZero() && now.Sub(s.UpdatedAt) > idleSessionTTL
		if expired || idle {
			delete(m.sessions, id)
		}
	}
}

// publish exports the number of running sessions of kind. Callers hold mu.
func (m *MemoryStore) publish(kind string) {
	active := 0
	for _, s := range m.sessions {
		if s.Kind == kind && !s.Completed {
			active++
		}
	}
	metrics.SetActiveSessions(kind, active)
}
