// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/agentdesk/internal/auth"
	"github.com/olegiv/agentdesk/internal/model"
)

type fakeSessions struct {
	stored    bool
	principal model.Principal
}

func (f fakeSessions) IsAuthenticated(context.Context) bool { return f.stored }

func (f fakeSessions) Current() (model.Principal, bool) {
	return f.principal, f.principal.Valid()
}

func TestRequireSession(t *testing.T) {
	agent := model.Principal{ID: 7, Name: "Asha"}

	tests := []struct {
		name         string
		sessions     fakeSessions
		target       string
		wantStatus   int
		wantLocation string
	}{
		{
			name:       "signed in",
			sessions:   fakeSessions{stored: true, principal: agent},
			target:     "/dashboard",
			wantStatus: http.StatusOK,
		},
		{
			name:         "signed out",
			sessions:     fakeSessions{},
			target:       "/dashboard?tab=blog",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fdashboard%3Ftab%3Dblog",
		},
		{
			name:         "storage cleared behind the store",
			sessions:     fakeSessions{stored: false, principal: agent},
			target:       "/dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fdashboard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.Principal
			var ok bool
			handler := RequireSession(auth.NewGate(tt.sessions))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = GetPrincipal(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if tt.wantStatus == http.StatusOK && (!ok || got != agent) {
				t.Errorf("GetPrincipal = (%v, %v), want (%v, true)", got, ok, agent)
			}
		})
	}
}

func TestGetPrincipalMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := GetPrincipal(req); ok {
		t.Error("GetPrincipal should report false without a principal")
	}
	if id := GetAgentID(req); id != 0 {
		t.Errorf("GetAgentID = %d, want 0", id)
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard/blog/3/edit?x=1", nil))

	if got != "/dashboard/blog/3/edit" {
		t.Errorf("GetRequestPath = %q, want %q", got, "/dashboard/blog/3/edit")
	}
	if GetRequestPath(context.Background()) != "" {
		t.Error("GetRequestPath on empty context should be empty")
	}
}
