// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/olegiv/agentdesk/internal/scheduler"
	"github.com/olegiv/agentdesk/internal/session"
	"github.com/olegiv/agentdesk/internal/version"
)

// UpstreamStatus reports the last backend probe.
type UpstreamStatus interface {
	Status() scheduler.ProbeStatus
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	upstream  UpstreamStatus
	sessions  *session.Store
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, upstream UpstreamStatus, sessions *session.Store) *HealthHandler {
	return &HealthHandler{
		db:        db,
		upstream:  upstream,
		sessions:  sessions,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Uptime    string                `json:"uptime"`
	Version   string                `json:"version"`
	Checks    map[string]Check      `json:"checks"`
	Upstream  scheduler.ProbeStatus `json:"upstream"`
	Session   SessionInfo           `json:"session"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SessionInfo describes the agent session without identifying the agent.
type SessionInfo struct {
	State     string     `json:"state"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Health handles GET /health. The response is 503 when the local database
// is unavailable; an unreachable backend only degrades the status because
// the dashboard still renders inline errors.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	upstream := h.upstream.Status()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Short(),
		Checks: map[string]Check{
			"database": dbCheck,
			"upstream": upstreamCheck(upstream),
		},
		Upstream: upstream,
		Session:  h.sessionInfo(),
	}

	code := http.StatusOK
	switch {
	case dbCheck.Status != "healthy":
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case upstream.Checked && !upstream.Reachable:
		status.Status = "degraded"
	}

	writeJSON(w, code, status)
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()

	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

func upstreamCheck(s scheduler.ProbeStatus) Check {
	switch {
	case !s.Checked:
		return Check{Status: "unknown", Message: "Not probed yet"}
	case !s.Reachable:
		return Check{Status: "unhealthy", Message: s.Error}
	default:
		return Check{Status: "healthy", Message: "Reachable", Latency: s.Latency.String()}
	}
}

func (h *HealthHandler) sessionInfo() SessionInfo {
	info := SessionInfo{State: h.sessions.State().String()}
	if exp := h.sessions.ExpiresAt(); !exp.IsZero() {
		exp = exp.UTC()
		info.ExpiresAt = &exp
	}
	return info
}
