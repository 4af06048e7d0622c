package portfolio

import (
	"errors"
	"sync"
	"time"

	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = errors.New("session not found")

// Sessions tracks live browser sessions by id
type Sessions struct {
	accounts   *Accounts
	events     *events.Manager
	orderDelay time.Duration
	log        zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessions creates an empty session registry
func NewSessions(accounts *Accounts, eventManager *events.Manager, orderDelay time.Duration, log zerolog.Logger) *Sessions {
	return &Sessions{
		accounts:   accounts,
		events:     eventManager,
		orderDelay: orderDelay,
		log:        log.With().Str("service", "sessions").Logger(),
		sessions:   make(map[string]*Session),
	}
}

// Create starts a new signed-out session
func (r *Sessions) Create() *Session {
	id := uuid.NewString()
	session := newSession(id, r.accounts, r.events, r.orderDelay)

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	r.log.Debug().Str("session", id).Msg("Session created")
	return session
}

// Get returns a live session and marks it active
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Touch()
	return session, nil
}

// Remove ends a session and releases its account
func (r *Sessions) Remove(id string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		session.close()
	}
}

// Sweep removes sessions idle since before cutoff and returns how many were dropped
func (r *Sessions) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	var idle []*Session
	for id, session := range r.sessions {
		if session.LastSeen().Before(cutoff) {
			idle = append(idle, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range idle {
		session.close()
	}
	return len(idle)
}

// Count returns the number of live sessions
func (r *Sessions) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
