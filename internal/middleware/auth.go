// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session gating,
// login throttling, and request context handling.
package middleware

import (
	"context"
	"net/http"

	"github.com/olegiv/agentdesk/internal/auth"
	"github.com/olegiv/agentdesk/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyPrincipal   ContextKey = "principal"
	ContextKeyRequestPath ContextKey = "request_path"
)

// RequireSession creates middleware that lets a request through only when
// the gate allows the requested view. Otherwise the agent is redirected to
// the login page with the view as the return target.
func RequireSession(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := gate.Evaluate(r.Context(), r.URL.RequestURI())
			if !d.Render() {
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, d.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the signed-in agent from the request context.
func GetPrincipal(r *http.Request) (model.Principal, bool) {
	p, ok := r.Context().Value(ContextKeyPrincipal).(model.Principal)
	return p, ok && p.Valid()
}

// GetAgentID returns the signed-in agent ID, or 0 if there is none.
// Safe to use in logging where a zero-value is acceptable.
func GetAgentID(r *http.Request) int64 {
	if p, ok := GetPrincipal(r); ok {
		return p.ID
	}
	return 0
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
