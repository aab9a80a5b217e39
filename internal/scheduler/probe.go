// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single reachability check.
const DefaultProbeTimeout = 5 * time.Second

// Pinger checks whether the backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeStatus is the last known backend reachability.
type ProbeStatus struct {
	Checked   bool          `json:"checked"`
	Reachable bool          `json:"reachable"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
	Failures  int           `json:"consecutive_failures"`
}

// Prober records backend reachability. Transitions are logged once: a
// warning when the backend stops answering and info when it recovers.
type Prober struct {
	pinger  Pinger
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	status ProbeStatus
}

// NewProber creates a prober. A non-positive timeout uses DefaultProbeTimeout.
func NewProber(pinger Pinger, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		pinger:  pinger,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Job returns the prober as a scheduler job.
func (p *Prober) Job(schedule string) Job {
	return Job{
		Name:        "upstream-probe",
		Description: "Checks that the backend API is reachable",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			p.Probe(ctx)
			return nil
		},
	}
}

// Probe checks the backend once and returns the new status.
func (p *Prober) Probe(ctx context.Context) ProbeStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	err := p.pinger.Ping(ctx)
	latency := p.now().Sub(start)

	p.mu.Lock()
	prev := p.status
	next := ProbeStatus{
		Checked:   true,
		Reachable: err == nil,
		CheckedAt: start,
		Latency:   latency,
	}
	if err != nil {
		next.Error = err.Error()
		next.Failures = prev.Failures + 1
	}
	p.status = next
	p.mu.Unlock()

	switch {
	case err != nil && (!prev.Checked || prev.Reachable):
		p.logger.Warn("backend unreachable", "category", "upstream", "error", err)
	case err == nil && prev.Checked && !prev.Reachable:
		p.logger.Info("backend reachable again", "category", "upstream", "failures", prev.Failures)
	}
	return next
}

// Status returns the last probe result.
func (p *Prober) Status() ProbeStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
