// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agentdesk/internal/clock"
	"github.com/olegiv/agentdesk/internal/model"
)

var testStart = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

// memStorage is an in-memory Storage with injectable failures.
type memStorage struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
	loadErr error
	clears  int
}

func (m *memStorage) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memStorage) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.clears++
	return nil
}

func (m *memStorage) record(t *testing.T) Record {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotNil(t, m.data, "storage is empty")
	var rec Record
	require.NoError(t, json.Unmarshal(m.data, &rec))
	return rec
}

func newTestStore(t *testing.T, storage Storage, renew bool) (*Store, *clock.FakeClock) {
	t.Helper()
	fc := clock.NewFake(testStart)
	s := NewStore(storage, Options{
		Lifetime:       time.Hour,
		RenewOnRestore: renew,
		Clock:          fc,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(s.Close)
	return s, fc
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

var agent = model.Principal{ID: 7, Name: "Asha"}

func TestLoginThenIsAuthenticated(t *testing.T) {
	ctx := context.Background()
	for _, p := range []model.Principal{{ID: 1}, {ID: 7, Name: "Asha"}, {ID: 99999, Name: "Ravi Kumar"}} {
		storage := &memStorage{}
		s, _ := newTestStore(t, storage, true)

		require.NoError(t, s.Login(ctx, p))
		assert.True(t, s.IsAuthenticated(ctx), "principal %v", p)

		got, ok := s.Current()
		assert.True(t, ok)
		assert.Equal(t, p, got)
		assert.Equal(t, StateLoggedIn, s.State())
		assert.Equal(t, testStart.Add(time.Hour), s.ExpiresAt())
		assert.Equal(t, p, storage.record(t).Principal)
	}
}

func TestLoginRejectsInvalidPrincipal(t *testing.T) {
	s, _ := newTestStore(t, &memStorage{}, true)
	err := s.Login(context.Background(), model.Principal{Name: "nobody"})
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestLoginSaveFailureKeepsLoggedOut(t *testing.T) {
	storage := &memStorage{saveErr: errors.New("disk full")}
	s, fc := newTestStore(t, storage, true)

	err := s.Login(context.Background(), agent)
	require.Error(t, err)
	assert.Equal(t, StateLoggedOut, s.State())
	assert.Zero(t, fc.Pending(), "no timer armed after failed login")
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	s, fc := newTestStore(t, storage, true)
	var log eventLog
	s.Subscribe(log.add)

	require.NoError(t, s.Login(ctx, agent))
	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated(ctx))

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Equal(t, StateLoggedOut, s.State())
	assert.Equal(t, []EventKind{EventLogin, EventLogout}, log.kinds())
	assert.Zero(t, fc.Pending())
}

func TestLogoutWithoutSession(t *testing.T) {
	s, _ := newTestStore(t, &memStorage{}, true)
	var log eventLog
	s.Subscribe(log.add)

	s.Logout(context.Background())
	assert.Empty(t, log.kinds())
}

func TestTimerExpiry(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	s, fc := newTestStore(t, storage, true)
	var log eventLog
	s.Subscribe(log.add)

	require.NoError(t, s.Login(ctx, agent))

	fc.Advance(59 * time.Minute)
	assert.True(t, s.IsAuthenticated(ctx))

	fc.Advance(time.Minute)
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Equal(t, StateLoggedOut, s.State())
	assert.Equal(t, []EventKind{EventLogin, EventExpired}, log.kinds())
	assert.True(t, s.ExpiresAt().IsZero())
}

func TestReloginRearmsTimer(t *testing.T) {
	ctx := context.Background()
	s, fc := newTestStore(t, &memStorage{}, true)

	require.NoError(t, s.Login(ctx, agent))
	fc.Advance(45 * time.Minute)
	require.NoError(t, s.Login(ctx, agent))
	assert.Equal(t, 1, fc.Pending(), "previous timer cancelled")

	fc.Advance(30 * time.Minute)
	assert.True(t, s.IsAuthenticated(ctx), "first timer must not fire")

	fc.Advance(30 * time.Minute)
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestLogoutCancelsExpiry(t *testing.T) {
	ctx := context.Background()
	s, fc := newTestStore(t, &memStorage{}, true)
	var log eventLog
	s.Subscribe(log.add)

	require.NoError(t, s.Login(ctx, agent))
	s.Logout(ctx)
	fc.Advance(2 * time.Hour)

	assert.Equal(t, []EventKind{EventLogin, EventLogout}, log.kinds())
}

func TestStaleTimerCallbackIgnored(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	s, _ := newTestStore(t, storage, true)

	require.NoError(t, s.Login(ctx, agent))
	s.mu.Lock()
	staleGen := s.gen - 1
	s.mu.Unlock()

	s.expire(staleGen)
	assert.Equal(t, StateLoggedIn, s.State())
	assert.True(t, s.IsAuthenticated(ctx))
}

func TestRestoreEmpty(t *testing.T) {
	s, fc := newTestStore(t, &memStorage{}, true)

	assert.Equal(t, StateLoggedOut, s.Restore(context.Background()))
	assert.Zero(t, fc.Pending())
}

func TestRestoreCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"principal":`},
		{"not an object", `"agent"`},
		{"missing principal", `{"expiresAt":"2026-01-10T10:00:00Z"}`},
		{"zero id", `{"id":0,"name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &memStorage{data: []byte(tt.data)}
			s, _ := newTestStore(t, storage, true)
			var log eventLog
			s.Subscribe(log.add)

			var state State
			require.NotPanics(t, func() { state = s.Restore(context.Background()) })
			assert.Equal(t, StateLoggedOut, state)
			assert.Nil(t, storage.data, "corrupt data cleared")
			assert.Empty(t, log.kinds())
		})
	}
}

func TestRestoreUnreadableStorage(t *testing.T) {
	storage := &memStorage{loadErr: errors.New("permission denied")}
	s, _ := newTestStore(t, storage, true)

	assert.Equal(t, StateLoggedOut, s.Restore(context.Background()))
	assert.Zero(t, storage.clears)
}

func TestRestoreRenewsFullLifetime(t *testing.T) {
	ctx := context.Background()
	old, err := json.Marshal(Record{Principal: agent, ExpiresAt: testStart.Add(-time.Hour)})
	require.NoError(t, err)
	storage := &memStorage{data: old}
	s, fc := newTestStore(t, storage, true)
	var log eventLog
	s.Subscribe(log.add)

	assert.Equal(t, StateLoggedIn, s.Restore(ctx))
	assert.Equal(t, testStart.Add(time.Hour), s.ExpiresAt())
	assert.Equal(t, testStart.Add(time.Hour), storage.record(t).ExpiresAt)
	assert.Equal(t, []EventKind{EventRestore}, log.kinds())

	fc.Advance(time.Hour)
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestRestoreHonorsPersistedExpiry(t *testing.T) {
	ctx := context.Background()
	data, err := json.Marshal(Record{Principal: agent, ExpiresAt: testStart.Add(20 * time.Minute)})
	require.NoError(t, err)
	storage := &memStorage{data: data}
	s, fc := newTestStore(t, storage, false)

	assert.Equal(t, StateLoggedIn, s.Restore(ctx))
	assert.Equal(t, testStart.Add(20*time.Minute), s.ExpiresAt())

	fc.Advance(20 * time.Minute)
	assert.Equal(t, StateLoggedOut, s.State())
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestRestoreElapsedWithoutRenewal(t *testing.T) {
	data, err := json.Marshal(Record{Principal: agent, ExpiresAt: testStart.Add(-time.Second)})
	require.NoError(t, err)
	storage := &memStorage{data: data}
	s, fc := newTestStore(t, storage, false)

	assert.Equal(t, StateLoggedOut, s.Restore(context.Background()))
	assert.Nil(t, storage.data)
	assert.Zero(t, fc.Pending())
}

func TestRestoreBarePrincipal(t *testing.T) {
	storage := &memStorage{data: []byte(`{"id":7,"name":"Asha"}`)}
	s, _ := newTestStore(t, storage, false)

	assert.Equal(t, StateLoggedIn, s.Restore(context.Background()))
	got, _ := s.Current()
	assert.Equal(t, agent, got)
	assert.Equal(t, testStart.Add(time.Hour), s.ExpiresAt())
}

func TestStaleRecordReadsAuthenticatedUntilRestore(t *testing.T) {
	ctx := context.Background()
	data, err := json.Marshal(Record{Principal: agent, ExpiresAt: testStart.Add(-3 * time.Hour)})
	require.NoError(t, err)
	s, _ := newTestStore(t, &memStorage{data: data}, true)

	assert.True(t, s.IsAuthenticated(ctx))
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, &memStorage{}, true)
	var log eventLog
	unsubscribe := s.Subscribe(log.add)

	require.NoError(t, s.Login(ctx, agent))
	unsubscribe()
	s.Logout(ctx)

	assert.Equal(t, []EventKind{EventLogin}, log.kinds())
}

func TestSubscriberMayReadStore(t *testing.T) {
	s, _ := newTestStore(t, &memStorage{}, true)
	var seen model.Principal
	s.Subscribe(func(ev Event) {
		seen, _ = s.Current()
	})

	require.NoError(t, s.Login(context.Background(), agent))
	assert.Equal(t, agent, seen)
}

func TestCloseKeepsStorage(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	s, fc := newTestStore(t, storage, true)

	require.NoError(t, s.Login(ctx, agent))
	s.Close()
	fc.Advance(2 * time.Hour)

	assert.True(t, s.IsAuthenticated(ctx))
}

func TestConcurrentLoginLogout(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, &memStorage{}, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Login(ctx, agent)
		}()
		go func() {
			defer wg.Done()
			s.Logout(ctx)
		}()
	}
	wg.Wait()

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "login", EventLogin.String())
	assert.Equal(t, "expired", EventExpired.String())
	assert.Equal(t, "logged_in", StateLoggedIn.String())
	assert.True(t, Event{Kind: EventRestore}.LoggedIn())
	assert.False(t, Event{Kind: EventExpired}.LoggedIn())
}
