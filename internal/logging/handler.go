// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the local event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/store"
)

// Attribute keys with special meaning to the event log.
const (
	AttrCategory = "category"
	AttrAgentID  = "agent_id"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above a level to the event log table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // Minimum level to forward to the event log (default: WARN)
	attrs   []slog.Attr
}

// NewEventLogHandler creates a handler forwarding WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog writes a record to the event log. A background context is
// used so the entry survives a cancelled request.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	var (
		category string
		agentID  sql.NullInt64
		metadata = make(map[string]string)
	)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case AttrCategory:
			category = a.Value.String()
		case AttrAgentID:
			if a.Value.Kind() == slog.KindInt64 {
				agentID = sql.NullInt64{Int64: a.Value.Int64(), Valid: true}
			}
			metadata[a.Key] = a.Value.String()
		default:
			metadata[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if category == "" {
		category = inferCategory(r.Message)
	}

	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}

	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:      eventLevel(r.Level),
		Category:   category,
		Message:    r.Message,
		AgentID:    agentID,
		Metadata:   meta,
		RequestURL: middleware.GetRequestPath(ctx),
		CreatedAt:  r.Time,
	})
}

// eventLevel converts a slog.Level to an event log level.
func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message text.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "auth") || strings.Contains(msg, "csrf"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "session"):
		return model.EventCategorySession
	case strings.Contains(msg, "backend") || strings.Contains(msg, "upstream"):
		return model.EventCategoryUpstream
	case strings.Contains(msg, "list") || strings.Contains(msg, "record") || strings.Contains(msg, "create") ||
		strings.Contains(msg, "update") || strings.Contains(msg, "delete"):
		return model.EventCategoryContent
	default:
		return model.EventCategorySystem
	}
}
