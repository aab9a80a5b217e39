// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/agentdesk/internal/model"
)

// Queries runs the event log statements against a database handle.
type Queries struct {
	db *sql.DB
}

// New returns Queries bound to db.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// CreateEventParams holds the columns of a new event.
type CreateEventParams struct {
	Level      string
	Category   string
	Message    string
	AgentID    sql.NullInt64
	Metadata   string
	RequestURL string
	CreatedAt  time.Time
}

const createEvent = `INSERT INTO events (level, category, message, agent_id, metadata, request_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateEvent inserts an event and returns its id.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	var id int64
	err := q.db.QueryRowContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.AgentID,
		arg.Metadata,
		arg.RequestURL,
		arg.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListEventsParams pages through events, newest first.
type ListEventsParams struct {
	Level  string // Empty matches every level
	Limit  int64
	Offset int64
}

const listEvents = `SELECT id, level, category, message, agent_id, metadata, request_url, created_at
FROM events
WHERE (? = '' OR level = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListEvents returns events matching arg.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Level, arg.Level, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID,
			&e.Level,
			&e.Category,
			&e.Message,
			&e.AgentID,
			&e.Metadata,
			&e.RequestURL,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents returns the number of stored events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// DeleteEventsBefore removes events created before cutoff and returns how
// many were deleted.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
