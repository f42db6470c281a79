package bot

import (
	"sync"
	"time"
)

// reviewSession is a user's ongoing review of one deck
type reviewSession struct {
	DeckID    string
	DeckName  string
	CardID    string // Card currently shown
	Reviewed  int
	Limit     int
	StartedAt time.Time
}

// done reports whether the session reached its card limit
func (s *reviewSession) done() bool {
	return s.Limit > 0 && s.Reviewed >= s.Limit
}

// sessionStore keeps one review session per user. Updates are handled on
// separate goroutines, so access is serialized.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]reviewSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]reviewSession)}
}

func (s *sessionStore) get(userID int64) (reviewSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *sessionStore) put(userID int64, session reviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session
}

// update applies fn to the user's session if there is one
func (s *sessionStore) update(userID int64, fn func(*reviewSession)) (reviewSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return session, false
	}
	fn(&session)
	s.sessions[userID] = session
	return session, true
}

func (s *sessionStore) end(userID int64) (reviewSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return session, ok
}
