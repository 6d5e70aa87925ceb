package store

import (
	"sync"
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// Store is the in-memory state store for the daemon.
// It is thread-safe and supports pub/sub for real-time updates.
type Store struct {
	mu          sync.RWMutex
	state       *State
	subscribers map[chan Update]struct{}
	now         func() time.Time
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		state: &State{
			Sessions: make(map[string]*sessions.Session),
		},
		subscribers: make(map[chan Update]struct{}),
		now:         time.Now,
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := State{
		Sessions:  make(map[string]*sessions.Session, len(s.state.Sessions)),
		UpdatedAt: s.state.UpdatedAt,
	}
	for id, sess := range s.state.Sessions {
		out.Sessions[id] = sess
	}
	return out
}

// GetSessions returns all sessions, newest first.
func (s *Store) GetSessions() []*sessions.Session {
	s.mu.RLock()
	result := make([]*sessions.Session, 0, len(s.state.Sessions))
	for _, sess := range s.state.Sessions {
		result = append(result, sess)
	}
	s.mu.RUnlock()

	sessions.SortSessions(result)
	return result
}

// GetSession returns one session from the snapshot.
func (s *Store) GetSession(id string) (*sessions.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.state.Sessions[id]
	return sess, ok
}

// ApplyUpdate modifies the state and notifies subscribers.
func (s *Store) ApplyUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Type {
	case UpdateSessions:
		if list, ok := u.Payload.([]*sessions.Session); ok {
			newMap := make(map[string]*sessions.Session, len(list))
			for _, sess := range list {
				newMap[sess.ID] = sess
			}
			s.state.Sessions = newMap
			s.state.UpdatedAt = s.now()
		}
	case UpdateRemoved:
		if ids, ok := u.Payload.([]string); ok {
			for _, id := range ids {
				delete(s.state.Sessions, id)
			}
			s.state.UpdatedAt = s.now()
		}
	}

	// Broadcast to subscribers
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100) // Buffered
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}
