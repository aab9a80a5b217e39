// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "logging.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []model.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     slog.Level
		wantLevel string
		captured  bool
	}{
		{"error", slog.LevelError, model.EventLevelError, true},
		{"warn", slog.LevelWarn, model.EventLevelWarning, true},
		{"info", slog.LevelInfo, "", false},
		{"debug", slog.LevelDebug, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			logger := slog.New(NewEventLogHandler(discardHandler{}, db))

			logger.Log(context.Background(), tt.level, "backend unreachable", "host", "api.example.com")

			events := listEvents(t, db)
			if !tt.captured {
				if len(events) != 0 {
					t.Errorf("expected no events, got %d", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("agent logged in", "agent_id", int64(7))

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event with custom INFO level, got %d", len(events))
	}
	if !events[0].AgentID.Valid || events[0].AgentID.Int64 != 7 {
		t.Errorf("AgentID = %+v, want 7", events[0].AgentID)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message  string
		category string
	}{
		{"login attempt blocked", model.EventCategoryAuth},
		{"CSRF validation failed", model.EventCategoryAuth},
		{"discarding corrupt session record", model.EventCategorySession},
		{"upstream probe failed", model.EventCategoryUpstream},
		{"failed to load list", model.EventCategoryContent},
		{"disk almost full", model.EventCategorySystem},
	}

	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	for _, tt := range tests {
		_, _ = db.Exec("DELETE FROM events")
		logger.Error(tt.message)

		events := listEvents(t, db)
		if len(events) != 1 {
			t.Errorf("message %q: expected 1 event, got %d", tt.message, len(events))
			continue
		}
		if events[0].Category != tt.category {
			t.Errorf("message %q: Category = %q, want %q", tt.message, events[0].Category, tt.category)
		}
	}
}

func TestEventLogHandler_ExplicitCategoryAndMetadata(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("component", "dashboard")

	logger.Error("something happened",
		"category", model.EventCategoryContent,
		"type", "blog",
		"detail", `quoted "value"`,
	)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != model.EventCategoryContent {
		t.Errorf("Category = %q", events[0].Category)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, events[0].Metadata)
	}
	if meta["component"] != "dashboard" || meta["type"] != "blog" || meta["detail"] != `quoted "value"` {
		t.Errorf("metadata = %v", meta)
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be duplicated in metadata")
	}
}

func TestEventLogHandler_RequestURL(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	h := middleware.RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.ErrorContext(r.Context(), "create failed")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard/blog", nil))

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].RequestURL != "/dashboard/blog" {
		t.Errorf("RequestURL = %q", events[0].RequestURL)
	}
}
