// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/auth"
	"github.com/olegiv/agentdesk/internal/clock"
	"github.com/olegiv/agentdesk/internal/dashboard"
	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/quota"
	"github.com/olegiv/agentdesk/internal/render"
	"github.com/olegiv/agentdesk/internal/session"
	"github.com/olegiv/agentdesk/web"
)

const (
	testEmail    = "agent@example.com"
	testPassword = "secret"
)

var testPrincipal = model.Principal{ID: 42, Name: "Asha Rao"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend is an in-memory entity backend.
type fakeBackend struct {
	mu       sync.Mutex
	records  map[model.EntityType][]model.Record
	listErr  map[model.EntityType]error
	loginErr error
	loginVia Authenticator
	writeErr error
	nextID   int64
	creates  int
	patched  map[int64]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		records: make(map[model.EntityType][]model.Record),
		listErr: make(map[model.EntityType]error),
		nextID:  100,
		patched: make(map[int64]string),
	}
}

func (b *fakeBackend) add(rec model.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.EntityType()] = append(b.records[rec.EntityType()], rec)
}

func (b *fakeBackend) Login(ctx context.Context, email, password string) (model.Principal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loginVia != nil {
		return b.loginVia.Login(ctx, email, password)
	}
	if b.loginErr != nil {
		return model.Principal{}, b.loginErr
	}
	if email != testEmail || password != testPassword {
		return model.Principal{}, &api.Error{Kind: api.KindAuth, Op: "login", Status: http.StatusUnauthorized}
	}
	return testPrincipal, nil
}

func (b *fakeBackend) List(_ context.Context, t model.EntityType, _ int64) ([]model.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.listErr[t]; err != nil {
		return nil, err
	}
	return slices.Clone(b.records[t]), nil
}

func (b *fakeBackend) Create(_ context.Context, rec model.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.creates++
	b.nextID++
	if h, ok := rec.(*model.HeroSection); ok {
		h.ID = b.nextID
	}
	b.records[rec.EntityType()] = append(b.records[rec.EntityType()], rec)
	return nil
}

func (b *fakeBackend) Update(_ context.Context, t model.EntityType, id int64, rec model.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	for i, r := range b.records[t] {
		if r.RecordID() == id {
			b.records[t][i] = rec
			return nil
		}
	}
	return &api.Error{Kind: api.KindValidation, Op: "update", Status: http.StatusNotFound, Message: "Record not found"}
}

func (b *fakeBackend) Remove(_ context.Context, t model.EntityType, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.records[t] = slices.DeleteFunc(b.records[t], func(r model.Record) bool {
		return r.RecordID() == id
	})
	return nil
}

func (b *fakeBackend) PatchStatus(_ context.Context, _ model.EntityType, id int64, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.patched[id] = status
	return nil
}

func (b *fakeBackend) Plans(context.Context, int64) ([]model.PlanCategory, error) {
	return []model.PlanCategory{{Title: "Term Life", Plans: model.StringList{"Term 20", "Term 30"}}}, nil
}

func (b *fakeBackend) createCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creates
}

// testEnv is a router wired like the server, with cookies carried between
// requests.
type testEnv struct {
	router     http.Handler
	backend    *fakeBackend
	sessions   *session.Store
	controller *dashboard.Controller
	clock      *clock.FakeClock
	cookies    []*http.Cookie
}

func newTestEnv(t *testing.T, limits map[model.EntityType]int) *testEnv {
	t.Helper()

	logger := discardLogger()
	backend := newFakeBackend()
	fakeClock := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	storage, err := session.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	sessions := session.NewStore(storage, session.Options{Clock: fakeClock, Logger: logger})
	t.Cleanup(sessions.Close)

	controller := dashboard.New(backend, quota.New(limits), logger)
	sessions.Subscribe(controller.OnSessionEvent)

	sm := scs.New()
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templates, SessionManager: sm, Currency: "INR"})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{Logger: logger})
	authHandler := NewAuthHandler(backend, sessions, renderer, sm, lp, logger)
	dashboardHandler := NewDashboardHandler(controller, renderer, logger)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get(RouteLogin, authHandler.LoginForm)
	r.Post(RouteLogin, authHandler.Login)
	r.Post(RouteLogout, authHandler.Logout)
	r.Route(RouteDashboard, func(r chi.Router) {
		r.Use(middleware.RequireSession(auth.NewGate(sessions)))
		dashboardHandler.Routes(r)
	})

	return &testEnv{
		router:     r,
		backend:    backend,
		sessions:   sessions,
		controller: controller,
		clock:      fakeClock,
	}
}

// do sends a request with the cookies from earlier responses.
func (e *testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return w
}

// login signs the test agent in and fails the test otherwise.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, RouteLogin, url.Values{
		"email":    {testEmail},
		"password": {testPassword},
	})
	assertStatus(t, w.Code, http.StatusSeeOther)
	assertLocation(t, w, RouteDashboard)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

func assertLocation(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := w.Header().Get("Location"); got != want {
		t.Errorf("Location = %q; want %q", got, want)
	}
}

func assertBodyContains(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("body does not contain %q", want)
	}
}
