// Package memory keeps a bounded, per-session rolling window of recent
// conversation lines. State lives in process memory only: empty at
// startup, gone on shutdown.
package memory

import "sync"

// DefaultLimit is how many lines a session retains.
const DefaultLimit = 5

// session holds one conversation window with its own lock, so appends to
// different sessions never contend.
type session struct {
	mu    sync.Mutex
	lines []string
}

// Store maps session keys to bounded line windows.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	limit    int
}

// NewStore creates an empty session store. A limit <= 0 falls back to
// DefaultLimit.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		sessions: make(map[string]*session),
		limit:    limit,
	}
}

// Append adds a line to the session's window, evicting the oldest lines
// beyond the limit. Append-then-truncate is atomic per key.
func (s *Store) Append(key, line string) {
	sess := s.get(key)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lines = append(sess.lines, line)
	if len(sess.lines) > s.limit {
		trimmed := make([]string, s.limit)
		copy(trimmed, sess.lines[len(sess.lines)-s.limit:])
		sess.lines = trimmed
	}
}

// Get returns a copy of the session's lines, oldest first. An unknown key
// yields an empty slice.
func (s *Store) Get(key string) []string {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	lines := make([]string, len(sess.lines))
	copy(lines, sess.lines)
	return lines
}

// get returns the session for key, creating it if needed.
func (s *Store) get(key string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[key]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[key] = sess
	return sess
}
