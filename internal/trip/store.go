package trip

import (
	"sync"
	"time"

	"github.com/calmdrive/calmdrive/internal/stress"
)

// DefaultSessionTTL is how long a planned set of routes stays available
// for preparation.
const DefaultSessionTTL = 30 * time.Minute

// sessionEntry holds one user's most recent plan result.
type sessionEntry struct {
	routes    map[string]stress.AnalyzedRoute
	expiresAt time.Time
}

// SessionStore keeps planned routes per user so a later prepare call can
// reference them by route id. Planning again replaces the user's previous
// session. Entries expire after the TTL.
type SessionStore struct {
	ttl         time.Duration
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry
	lastCleanup time.Time
}

// NewSessionStore creates a session store. A zero ttl uses DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
	}
}

// Put stores the user's planned routes, replacing any previous session.
func (s *SessionStore) Put(userID string, routes []stress.AnalyzedRoute) {
	byID := make(map[string]stress.AnalyzedRoute, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = &sessionEntry{
		routes:    byID,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.cleanupLocked()
}

// Get returns the named route from the user's current session, if present
// and not expired.
func (s *SessionStore) Get(userID, routeID string) (*stress.AnalyzedRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	route, ok := entry.routes[routeID]
	if !ok {
		return nil, false
	}
	return &route, true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	now := time.Now()
	for _, entry := range s.sessions {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count
}

// cleanupLocked drops expired sessions. Called with the write lock held,
// at most once per TTL interval.
func (s *SessionStore) cleanupLocked() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.ttl {
		return
	}
	s.lastCleanup = now

	for userID, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, userID)
		}
	}
}
