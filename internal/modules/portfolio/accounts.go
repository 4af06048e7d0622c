package portfolio

import (
	"context"
	"sync"

	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// Accounts guarantees exactly one live Account per identity, however many sessions
// are signed in as it. Accounts are loaded on first acquire and dropped after the
// last release.
type Accounts struct {
	store  *Store
	events *events.Manager
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*accountEntry
}

type accountEntry struct {
	account *Account
	refs    int
}

// NewAccounts creates an empty registry
func NewAccounts(store *Store, eventManager *events.Manager, log zerolog.Logger) *Accounts {
	return &Accounts{
		store:   store,
		events:  eventManager,
		log:     log.With().Str("service", "accounts").Logger(),
		entries: make(map[string]*accountEntry),
	}
}

// Store returns the backing store
func (r *Accounts) Store() *Store {
	return r.store
}

// Acquire returns the account of identity, loading it when no session holds it yet.
// Every successful Acquire must be paired with a Release.
func (r *Accounts) Acquire(ctx context.Context, identity string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[identity]; ok {
		entry.refs++
		return entry.account, nil
	}

	state, err := r.store.Load(ctx, identity)
	if err != nil {
		return nil, err
	}

	account := newAccount(identity, r.store.Key(identity), ledger.Load{Snapshot: state}, r.store, r.events,
		r.log.With().Str("identity", identity).Logger())
	r.entries[identity] = &accountEntry{account: account, refs: 1}

	r.log.Debug().Str("identity", identity).Msg("Account loaded")
	return account, nil
}

// Release gives back an account obtained from Acquire
func (r *Accounts) Release(account *Account) {
	if account == nil || account.Ephemeral() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[account.identity]
	if !ok || entry.account != account {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.entries, account.identity)
		r.log.Debug().Str("identity", account.identity).Msg("Account released")
	}
}

// Ephemeral creates an unregistered, never persisted account with a default wallet
func (r *Accounts) Ephemeral(scope string) *Account {
	return newAccount("", scope, ledger.Reset{}, r.store, r.events,
		r.log.With().Str("scope", scope).Logger())
}

// Open loads an account for a one-off operation outside any session.
// The caller must Release it.
func (r *Accounts) Open(ctx context.Context, identity string) (*Account, error) {
	if identity == "" {
		return r.Ephemeral(""), nil
	}
	return r.Acquire(ctx, identity)
}

// Live returns the number of loaded accounts
func (r *Accounts) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
