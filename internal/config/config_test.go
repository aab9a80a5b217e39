// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/agentdesk/internal/model"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	os.Clearenv()
	setEnv(t, "AGENTDESK_SESSION_SECRET", testSecret)
	setEnv(t, "AGENTDESK_API_BASE_URL", "https://api.example.com/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q, trailing slash should be trimmed", cfg.APIBaseURL)
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.SessionLifetime != time.Hour {
		t.Errorf("SessionLifetime = %v, want 1h", cfg.SessionLifetime)
	}
	if !cfg.SessionRenewOnRestore {
		t.Error("SessionRenewOnRestore should default to true")
	}
	if cfg.SessionBackend != SessionBackendFile {
		t.Errorf("SessionBackend = %q, want file", cfg.SessionBackend)
	}
	if cfg.DatabasePath() != "data/agentdesk.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if cfg.Currency != "INR" {
		t.Errorf("Currency = %q, want INR", cfg.Currency)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env by default")
	}
	if cfg.EventRetention != 30*24*time.Hour {
		t.Errorf("EventRetention = %v, want 720h", cfg.EventRetention)
	}

	limits := cfg.QuotaLimits()
	for _, typ := range []model.EntityType{model.TypeHeroSection, model.TypeBlogPost, model.TypeTestimonial} {
		if limits[typ] != 10 {
			t.Errorf("limit for %s = %d, want 10", typ, limits[typ])
		}
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	setEnv(t, "AGENTDESK_MAX_HERO_SECTIONS", "3")
	setEnv(t, "AGENTDESK_MAX_BLOG_POSTS", "0")
	setEnv(t, "AGENTDESK_SESSION_LIFETIME", "30m")
	setEnv(t, "AGENTDESK_SESSION_RENEW_ON_RESTORE", "false")
	setEnv(t, "AGENTDESK_SESSION_BACKEND", "sqlite")
	setEnv(t, "AGENTDESK_DB_PATH", "/var/lib/agentdesk/state.db")
	setEnv(t, "AGENTDESK_SERVER_PORT", "3000")
	setEnv(t, "AGENTDESK_CURRENCY", "usd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MaxHeroSections != 3 || cfg.MaxBlogPosts != 0 {
		t.Errorf("maxima = %d/%d", cfg.MaxHeroSections, cfg.MaxBlogPosts)
	}
	if cfg.SessionLifetime != 30*time.Minute || cfg.SessionRenewOnRestore {
		t.Errorf("session = %v renew=%v", cfg.SessionLifetime, cfg.SessionRenewOnRestore)
	}
	if cfg.DatabasePath() != "/var/lib/agentdesk/state.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if cfg.ServerAddr() != "localhost:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cfg.Currency)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short secret", "AGENTDESK_SESSION_SECRET", "short", "at least 32 bytes"},
		{"weak secret", "AGENTDESK_SESSION_SECRET", "change-me-to-32-byte-secret-key!", "known default"},
		{"relative api url", "AGENTDESK_API_BASE_URL", "api.example.com", "absolute http(s) URL"},
		{"missing api url", "AGENTDESK_API_BASE_URL", "", "AGENTDESK_API_BASE_URL"},
		{"negative maximum", "AGENTDESK_MAX_TESTIMONIALS", "-1", "must not be negative"},
		{"tiny lifetime", "AGENTDESK_SESSION_LIFETIME", "5s", "at least 1m"},
		{"unknown backend", "AGENTDESK_SESSION_BACKEND", "memcached", "must be one of"},
		{"redis without url", "AGENTDESK_SESSION_BACKEND", "redis", "AGENTDESK_REDIS_URL is required"},
		{"negative retention", "AGENTDESK_EVENT_RETENTION", "-1h", "must not be negative"},
		{"bad currency", "AGENTDESK_CURRENCY", "RUPEE", "ISO 4217"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			if tt.value == "" {
				_ = os.Unsetenv(tt.key)
			} else {
				setEnv(t, tt.key, tt.value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefghijklmnopqrstuvwxyzabcdef", false},
		{"abcdefghABCDEFGH1234567890abcdef", true},
		{"abc-def-ghi-jkl-mno-pqr-stu-vwxy", false},
		{"Abc-def-ghi-jkl-mno-pqr-stu-vwxy", true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
