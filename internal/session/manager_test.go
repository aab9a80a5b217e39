// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	db := setupTestDB(t)

	sm := NewManager(db, true)

	if sm == nil {
		t.Fatal("expected session manager to be non-nil")
	}
}

func TestNewManager_DevMode(t *testing.T) {
	db := setupTestDB(t)

	sm := NewManager(db, true)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
}

func TestNewManager_ProductionMode(t *testing.T) {
	db := setupTestDB(t)

	sm := NewManager(db, false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("expected Cookie.Path = '/', got %q", sm.Cookie.Path)
	}
}

func TestNewManager_Settings(t *testing.T) {
	db := setupTestDB(t)

	sm := NewManager(db, true)

	if sm.Lifetime != 12*time.Hour {
		t.Errorf("Lifetime = %v, want 12h", sm.Lifetime)
	}
	if sm.IdleTimeout != time.Hour {
		t.Errorf("IdleTimeout = %v, want 1h", sm.IdleTimeout)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
	if sm.Cookie.Name != "agentdesk_session" {
		t.Errorf("Cookie.Name = %q", sm.Cookie.Name)
	}
}
