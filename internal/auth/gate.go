// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth decides whether a protected view may render for the current
// session. The decision is recomputed on every navigation because the
// session can expire while the agent is idle on a protected page.
package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/olegiv/agentdesk/internal/model"
)

// LoginPath is where unauthenticated navigation is sent.
const LoginPath = "/login"

// SessionChecker is the read side of the session store.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
	Current() (model.Principal, bool)
}

// Action is the outcome of a gate evaluation.
type Action int

// Gate actions.
const (
	ActionRender Action = iota + 1
	ActionRedirect
)

// Decision tells the caller whether to render the view or redirect.
type Decision struct {
	Action Action
	// Location is set for ActionRedirect.
	Location string
	// Principal is set for ActionRender.
	Principal model.Principal
}

// Render reports whether the view may render.
func (d Decision) Render() bool { return d.Action == ActionRender }

// Gate guards protected views. It never mutates the session.
type Gate struct {
	sessions SessionChecker
}

// NewGate creates a gate over the session store.
func NewGate(sessions SessionChecker) *Gate {
	return &Gate{sessions: sessions}
}

// Evaluate decides for the requested view path. A view renders only when
// storage holds a record and the store has a live principal; otherwise the
// agent is sent to the login page with the view as the return target.
func (g *Gate) Evaluate(ctx context.Context, view string) Decision {
	if g.sessions.IsAuthenticated(ctx) {
		if p, ok := g.sessions.Current(); ok {
			return Decision{Action: ActionRender, Principal: p}
		}
	}
	return Decision{Action: ActionRedirect, Location: LoginURL(view)}
}

// LoginURL returns the login page URL carrying next as the return target.
// Targets that are not local paths are dropped.
func LoginURL(next string) string {
	if !SafeNext(next) || next == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext reports whether next is a local absolute path.
func SafeNext(next string) bool {
	return strings.HasPrefix(next, "/") &&
		!strings.HasPrefix(next, "//") &&
		!strings.HasPrefix(next, "/\\") &&
		!strings.ContainsAny(next, "\r\n")
}
