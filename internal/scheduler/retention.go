// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventDeleter removes event log rows older than a cutoff.
type EventDeleter interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPruner deletes events older than its retention period.
type EventPruner struct {
	events    EventDeleter
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventPruner creates a pruner. A zero retention disables pruning.
func NewEventPruner(events EventDeleter, retention time.Duration, logger *slog.Logger) *EventPruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPruner{
		events:    events,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Job returns the pruner as a scheduler job.
func (p *EventPruner) Job(schedule string) Job {
	return Job{
		Name:        "event-retention",
		Description: "Deletes event log entries past the retention period",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			_, err := p.Prune(ctx)
			return err
		},
	}
}

// Prune deletes expired events and returns how many were removed.
func (p *EventPruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-p.retention)
	n, err := p.events.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	if n > 0 {
		p.logger.Info("pruned event log", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}
