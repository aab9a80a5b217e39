// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategorySession  = "session"
	EventCategoryContent  = "content"
	EventCategoryUpstream = "upstream"
	EventCategorySystem   = "system"
)

// Event is a local audit log entry.
type Event struct {
	ID         int64
	Level      string
	Category   string
	Message    string
	AgentID    sql.NullInt64
	Metadata   string // JSON string
	RequestURL string
	CreatedAt  time.Time
}
