package portfolio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
)

// ReasonSessionChanged rejects an action that was in flight while the identity changed
const ReasonSessionChanged = "Session changed. Please retry."

// MaxIdentityLength bounds identity strings
const MaxIdentityLength = 128

// ErrInvalidIdentity is returned for identities that cannot form a storage key
var ErrInvalidIdentity = errors.New("invalid identity")

// ErrSessionClosed is returned for changes requested through a swept session
var ErrSessionClosed = errors.New("session closed")

// NormalizeIdentity trims an identity and checks it is usable
func NormalizeIdentity(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if len(identity) > MaxIdentityLength {
		return "", ErrInvalidIdentity
	}
	for _, r := range identity {
		if unicode.IsControl(r) {
			return "", ErrInvalidIdentity
		}
	}
	return identity, nil
}

// SessionInfo describes a session to API clients
type SessionInfo struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	SignedIn bool   `json:"signed_in"`
	Epoch    int    `json:"epoch"`
}

// Session is one browser session. It is bound to exactly one account at a time.
// Switching identity replaces the account and bumps the epoch; actions that started
// under an older epoch are rejected instead of landing on the new identity.
type Session struct {
	id         string
	accounts   *Accounts
	events     *events.Manager
	orderDelay time.Duration

	mu       sync.Mutex
	identity string
	epoch    int
	account  *Account
	lastSeen time.Time
	closed   bool
}

func newSession(id string, accounts *Accounts, eventManager *events.Manager, orderDelay time.Duration) *Session {
	return &Session{
		id:         id,
		accounts:   accounts,
		events:     eventManager,
		orderDelay: orderDelay,
		account:    accounts.Ephemeral("session:" + id),
		lastSeen:   time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Info returns the current identity and epoch
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:       s.id,
		Identity: s.identity,
		SignedIn: s.identity != "",
		Epoch:    s.epoch,
	}
}

// Account returns the currently bound account
func (s *Session) Account() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Scope returns the event scope of the bound account
func (s *Session) Scope() string {
	return s.Account().Scope()
}

// State returns the wallet of the bound account
func (s *Session) State() domain.PortfolioState {
	return s.Account().State()
}

// SwitchIdentity binds the session to identity; an empty identity signs out to a
// fresh ephemeral wallet. The new account is fully loaded before this returns.
func (s *Session) SwitchIdentity(ctx context.Context, identity string) (SessionInfo, error) {
	identity, err := NormalizeIdentity(identity)
	if err != nil {
		return SessionInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SessionInfo{}, ErrSessionClosed
	}
	if identity == s.identity {
		return s.infoLocked(), nil
	}

	var next *Account
	if identity == "" {
		next = s.accounts.Ephemeral("session:" + s.id)
	} else {
		next, err = s.accounts.Acquire(ctx, identity)
		if err != nil {
			return SessionInfo{}, err
		}
	}

	s.accounts.Release(s.account)
	s.account = next
	s.identity = identity
	s.epoch++
	s.lastSeen = time.Now()

	s.events.EmitTyped("sessions", next.Scope(), &events.IdentityChangedData{
		SignedIn: identity != "",
		Epoch:    s.epoch,
	})
	return s.infoLocked(), nil
}

// AddFunds credits the bound account. A swept session is rejected.
func (s *Session) AddFunds(ctx context.Context, amount float64) (domain.PortfolioState, ledger.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.account.State(), ledger.Rejected(ReasonSessionChanged), nil
	}
	s.lastSeen = time.Now()
	return s.account.AddFunds(ctx, amount)
}

// Buy places a paper order after the simulated placement delay.
// The order is rejected if the identity changed while it was pending.
func (s *Session) Buy(ctx context.Context, order domain.BuyOrder) (domain.PortfolioState, ledger.Result, error) {
	s.mu.Lock()
	epoch := s.epoch
	state := s.account.State()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	// Fail fast on orders the ledger would reject anyway
	if result := ledger.ValidateBuy(state, order); !result.Success {
		return state, result, nil
	}

	if s.orderDelay > 0 {
		timer := time.NewTimer(s.orderDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return state, ledger.Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.closed {
		return s.account.State(), ledger.Rejected(ReasonSessionChanged), nil
	}
	if order.Timestamp == "" {
		order.Timestamp = domain.FormatTimestamp(time.Now())
	}
	return s.account.Buy(ctx, order)
}

// Clear resets the bound account
func (s *Session) Clear(ctx context.Context) (domain.PortfolioState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.account.State(), ErrSessionClosed
	}
	s.lastSeen = time.Now()
	return s.account.Clear(ctx)
}

// Touch marks the session as active
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close releases the bound account; pending actions are rejected afterwards
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.epoch++
	s.accounts.Release(s.account)
}

func (s *Session) infoLocked() SessionInfo {
	return SessionInfo{
		ID:       s.id,
		Identity: s.identity,
		SignedIn: s.identity != "",
		Epoch:    s.epoch,
	}
}
