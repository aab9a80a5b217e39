// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers for the agent dashboard.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/mileusna/useragent"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/auth"
	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/render"
	"github.com/olegiv/agentdesk/internal/session"
)

// Authenticator verifies agent credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.Principal, error)
}

// AuthHandler handles authentication routes.
type AuthHandler struct {
	client          Authenticator
	sessions        *session.Store
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. lp may be nil to disable
// account lockout.
func NewAuthHandler(client Authenticator, sessions *session.Store, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		client:          client,
		sessions:        sessions,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
		logger:          logger,
	}
}

// loginPage is the data for the login template.
type loginPage struct {
	Error string
	Next  string
	Email string
}

// LoginForm renders the login page. An agent who is already signed in is
// sent to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r.Context()) {
		http.Redirect(w, r, redirectDashboard, http.StatusSeeOther)
		return
	}

	next := r.URL.Query().Get("next")
	if !auth.SafeNext(next) {
		next = ""
	}
	h.renderLogin(w, r, http.StatusOK, loginPage{Next: next})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginPage{Error: "Invalid form data"})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	next := r.PostFormValue("next")
	if !auth.SafeNext(next) {
		next = ""
	}
	page := loginPage{Next: next, Email: email}

	if email == "" || password == "" {
		page.Error = api.MsgMissingCredentials
		h.renderLogin(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.logger.Warn("login attempt on locked account", "email", email, "category", "auth")
			page.Error = fmt.Sprintf("Account temporarily locked. Please try again in %s.", formatDuration(remaining))
			h.renderLogin(w, r, http.StatusTooManyRequests, page)
			return
		}
	}

	principal, err := h.client.Login(r.Context(), email, password)
	if err != nil {
		page.Error = api.UserMessage(err)
		if !api.IsKind(err, api.KindAuth) {
			h.logger.Warn("login request failed", "email", email, "error", err, "category", "auth")
			h.renderLogin(w, r, statusForError(err), page)
			return
		}

		h.logger.Info("login rejected", "email", email)
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
				page.Error = fmt.Sprintf("Too many failed login attempts. Please try again in %s.", formatDuration(lockDuration))
				h.renderLogin(w, r, http.StatusTooManyRequests, page)
				return
			}
			if remaining := h.loginProtection.RemainingAttempts(email); remaining <= 3 && remaining > 0 {
				page.Error += fmt.Sprintf(" %d attempts remaining.", remaining)
			}
		}
		h.renderLogin(w, r, http.StatusUnauthorized, page)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Regenerate the browser session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	if err := h.sessions.Login(r.Context(), principal); err != nil {
		logAndInternalError(w, "failed to persist session", "error", err, "agent_id", principal.ID)
		return
	}

	ua := useragent.Parse(r.UserAgent())
	h.logger.Info("login succeeded",
		"agent_id", principal.ID,
		"browser", valueOrUnknown(ua.Name),
		"os", valueOrUnknown(ua.OS),
		"device", deviceType(ua),
	)

	target := redirectDashboard
	if next != "" {
		target = next
	}
	flashSuccess(w, r, h.renderer, target, "Welcome back, "+principal.DisplayName()+"!")
}

// Logout handles agent logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	agentID := int64(0)
	if p, ok := h.sessions.Current(); ok {
		agentID = p.ID
	}

	h.sessions.Logout(r.Context())

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		h.logger.Error("session destroy error", "error", err)
	}

	h.logger.Info("agent logged out", "agent_id", agentID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, "You have been logged out.", render.FlashInfo)
}

func (h *AuthHandler) signedIn(ctx context.Context) bool {
	if !h.sessions.IsAuthenticated(ctx) {
		return false
	}
	_, ok := h.sessions.Current()
	return ok
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, page loginPage) {
	err := h.renderer.RenderStatus(w, r, status, pageLogin, render.TemplateData{
		Title: "Login",
		Data:  page,
	})
	if err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// deviceType classifies the client for the login audit log.
func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
