// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/agentdesk/internal/model"
)

type fakeSessions struct {
	stored    bool
	principal model.Principal
	live      bool
	calls     int
}

func (f *fakeSessions) IsAuthenticated(context.Context) bool {
	f.calls++
	return f.stored
}

func (f *fakeSessions) Current() (model.Principal, bool) {
	return f.principal, f.live
}

func TestEvaluate(t *testing.T) {
	agent := model.Principal{ID: 3, Name: "Meera"}
	tests := []struct {
		name     string
		sessions fakeSessions
		want     Decision
	}{
		{
			name:     "logged in",
			sessions: fakeSessions{stored: true, principal: agent, live: true},
			want:     Decision{Action: ActionRender, Principal: agent},
		},
		{
			name:     "nothing stored",
			sessions: fakeSessions{},
			want:     Decision{Action: ActionRedirect, Location: "/login?next=%2Fdashboard%3Ftab%3Dblog"},
		},
		{
			name:     "stored but not restored",
			sessions: fakeSessions{stored: true},
			want:     Decision{Action: ActionRedirect, Location: "/login?next=%2Fdashboard%3Ftab%3Dblog"},
		},
		{
			name:     "expired in memory",
			sessions: fakeSessions{stored: false, principal: agent, live: true},
			want:     Decision{Action: ActionRedirect, Location: "/login?next=%2Fdashboard%3Ftab%3Dblog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&tt.sessions)
			assert.Equal(t, tt.want, g.Evaluate(context.Background(), "/dashboard?tab=blog"))
		})
	}
}

func TestEvaluateIsNotCached(t *testing.T) {
	s := &fakeSessions{stored: true, principal: model.Principal{ID: 1}, live: true}
	g := NewGate(s)

	assert.True(t, g.Evaluate(context.Background(), "/dashboard").Render())

	s.stored, s.live = false, false
	assert.False(t, g.Evaluate(context.Background(), "/dashboard").Render())
	assert.Equal(t, 2, s.calls)
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/dashboard", "/login?next=%2Fdashboard"},
		{"", "/login"},
		{"/login", "/login"},
		{"//evil.example.com", "/login"},
		{"/\\evil.example.com", "/login"},
		{"https://evil.example.com", "/login"},
		{"/dashboard\r\nSet-Cookie: x", "/login"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LoginURL(tt.next), "LoginURL(%q)", tt.next)
	}
}
