// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session owns the logged-in agent: it persists the principal in
// durable storage, enforces the session lifetime with an expiry timer, and
// publishes state changes to subscribers.
//
// IsAuthenticated is a storage presence check. If the process exits before
// the expiry timer fires, a record past its window still reads as
// authenticated until the next Restore runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/agentdesk/internal/clock"
	"github.com/olegiv/agentdesk/internal/model"
)

// DefaultLifetime is the session validity window.
const DefaultLifetime = time.Hour

// clearTimeout bounds storage cleanup performed from the expiry timer.
const clearTimeout = 5 * time.Second

// ErrInvalidPrincipal is returned by Login for a principal without an id.
var ErrInvalidPrincipal = errors.New("session: principal has no id")

// State is the authentication state of the process.
type State int

// Session states.
const (
	StateLoggedOut State = iota
	StateLoggedIn
)

func (s State) String() string {
	if s == StateLoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// EventKind identifies a session transition.
type EventKind int

// Session events.
const (
	EventLogin EventKind = iota + 1
	EventLogout
	EventExpired
	EventRestore
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventExpired:
		return "expired"
	case EventRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Event is published after every committed transition.
type Event struct {
	Kind      EventKind
	Principal model.Principal
	At        time.Time
}

// LoggedIn reports whether the event leaves a principal in place.
func (e Event) LoggedIn() bool {
	return e.Kind == EventLogin || e.Kind == EventRestore
}

// Record is the serialized form stored under Key.
type Record struct {
	Principal model.Principal `json:"principal"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Options configures a Store.
type Options struct {
	// Lifetime is the validity window. Zero means DefaultLifetime.
	Lifetime time.Duration
	// RenewOnRestore re-arms the full lifetime on Restore instead of
	// honoring the persisted expiry.
	RenewOnRestore bool
	Clock          clock.Clock
	Logger         *slog.Logger
}

// Store is the single owner of the session record.
type Store struct {
	storage  Storage
	clock    clock.Clock
	logger   *slog.Logger
	lifetime time.Duration
	renew    bool

	mu        sync.Mutex
	state     State
	principal model.Principal
	expiresAt time.Time
	timer     clock.Timer
	gen       uint64
	subs      map[int]func(Event)
	nextSub   int
}

// NewStore creates a logged-out store. Call Restore once at start.
func NewStore(storage Storage, opts Options) *Store {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		storage:  storage,
		clock:    opts.Clock,
		logger:   opts.Logger,
		lifetime: opts.Lifetime,
		renew:    opts.RenewOnRestore,
		subs:     make(map[int]func(Event)),
	}
}

// Login persists p, starts a fresh validity window and publishes EventLogin.
// A timer from a previous login is cancelled first.
func (s *Store) Login(ctx context.Context, p model.Principal) error {
	if !p.Valid() {
		return ErrInvalidPrincipal
	}

	s.mu.Lock()
	now := s.clock.Now()
	rec := Record{Principal: p, ExpiresAt: now.Add(s.lifetime)}
	data, err := json.Marshal(rec)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: encoding record: %w", err)
	}
	if err := s.storage.Save(ctx, data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: saving record: %w", err)
	}
	s.enterLocked(rec, s.lifetime)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Info("agent logged in", "agent_id", p.ID, "expires_at", rec.ExpiresAt)
	publish(subs, Event{Kind: EventLogin, Principal: p, At: now})
	return nil
}

// Logout clears storage and publishes EventLogout if a session was active.
// Calling it without a session is a no-op apart from clearing storage.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	p, wasIn := s.principal, s.state == StateLoggedIn
	s.leaveLocked()
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear session storage", "error", err)
	}
	subs := s.subscribersLocked()
	now := s.clock.Now()
	s.mu.Unlock()

	if !wasIn {
		return
	}
	s.logger.Info("agent logged out", "agent_id", p.ID)
	publish(subs, Event{Kind: EventLogout, Principal: p, At: now})
}

// Restore loads the persisted record and re-arms the expiry timer.
// Missing, unreadable or corrupt data yields StateLoggedOut; corrupt data
// is cleared. Restore never returns an error.
func (s *Store) Restore(ctx context.Context) State {
	s.mu.Lock()
	s.leaveLocked()

	data, err := s.storage.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read session storage", "error", err)
		}
		return StateLoggedOut
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.discardLocked(ctx)
		s.mu.Unlock()
		s.logger.Warn("discarding corrupt session record", "error", err)
		return StateLoggedOut
	}

	now := s.clock.Now()
	switch {
	case s.renew || rec.ExpiresAt.IsZero():
		rec.ExpiresAt = now.Add(s.lifetime)
		if data, err := json.Marshal(rec); err == nil {
			if err := s.storage.Save(ctx, data); err != nil {
				s.logger.Warn("failed to persist renewed session", "error", err)
			}
		}
	case !now.Before(rec.ExpiresAt):
		s.discardLocked(ctx)
		s.mu.Unlock()
		s.logger.Info("persisted session already expired",
			"agent_id", rec.Principal.ID, "expired_at", rec.ExpiresAt)
		return StateLoggedOut
	}

	s.enterLocked(rec, rec.ExpiresAt.Sub(now))
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Info("session restored", "agent_id", rec.Principal.ID, "expires_at", rec.ExpiresAt)
	publish(subs, Event{Kind: EventRestore, Principal: rec.Principal, At: now})
	return StateLoggedIn
}

// IsAuthenticated reports whether durable storage holds a principal.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	data, err := s.storage.Load(ctx)
	if err != nil {
		return false
	}
	_, err = decodeRecord(data)
	return err == nil
}

// Current returns the in-memory principal and whether one is logged in.
func (s *Store) Current() (model.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, s.state == StateLoggedIn
}

// State returns the in-memory state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExpiresAt returns the end of the current window, or the zero time when
// logged out.
func (s *Store) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Subscribe registers fn for events. fn runs synchronously on the goroutine
// that committed the transition, after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close stops the expiry timer without touching storage.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

func (s *Store) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateLoggedIn {
		s.mu.Unlock()
		return
	}
	p := s.principal
	s.leaveLocked()

	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear expired session", "error", err)
	}
	cancel()

	subs := s.subscribersLocked()
	now := s.clock.Now()
	s.mu.Unlock()

	s.logger.Info("session expired", "agent_id", p.ID)
	publish(subs, Event{Kind: EventExpired, Principal: p, At: now})
}

// enterLocked commits the logged-in state and arms a timer for d.
func (s *Store) enterLocked(rec Record, d time.Duration) {
	s.stopTimerLocked()
	s.state = StateLoggedIn
	s.principal = rec.Principal
	s.expiresAt = rec.ExpiresAt

	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { s.expire(gen) })
}

// leaveLocked resets in-memory state and invalidates any armed timer.
func (s *Store) leaveLocked() {
	s.stopTimerLocked()
	s.state = StateLoggedOut
	s.principal = model.Principal{}
	s.expiresAt = time.Time{}
}

func (s *Store) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) discardLocked(ctx context.Context) {
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear session storage", "error", err)
	}
}

func (s *Store) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

// decodeRecord parses a stored record. A bare principal object, as written
// by older clients, is accepted with a zero expiry.
func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	if rec.Principal.Valid() {
		return rec, nil
	}
	var p model.Principal
	if err := json.Unmarshal(data, &p); err == nil && p.Valid() {
		return Record{Principal: p}, nil
	}
	return Record{}, errors.New("record carries no principal")
}
