// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/dashboard"
	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/render"
)

// DashboardHandler serves the dashboard page and its editor and row actions.
// Every route is behind middleware.RequireSession.
type DashboardHandler struct {
	controller *dashboard.Controller
	renderer   *render.Renderer
	logger     *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(controller *dashboard.Controller, renderer *render.Renderer, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		controller: controller,
		renderer:   renderer,
		logger:     logger,
	}
}

// Routes registers the dashboard routes on r.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get(RouteRoot, h.Show)
	r.Post(RouteEditorClose, h.CloseEditor)
	r.Get(RouteType+RouteSuffixNew, h.New)
	r.Post(RouteType, h.Create)
	r.Get(RouteTypeID+RouteSuffixEdit, h.Edit)
	r.Post(RouteTypeID, h.Update)
	r.Post(RouteTypeID+RouteSuffixDelete, h.Delete)
	r.Post(RouteTypeID+RouteSuffixStatus, h.Status)
}

// dashboardPage is the data for the dashboard template.
type dashboardPage struct {
	View           dashboard.View
	Tab            dashboard.TabView
	BlogCategories []string
	PaymentCycles  []string
	PolicyStatuses []string
	PlanNames      []string
}

// Show handles GET /dashboard. Every list is fetched again before the page
// is rendered.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	if tab := r.URL.Query().Get("tab"); tab != "" {
		if t, err := model.ParseEntityType(tab); err == nil {
			_ = h.controller.SelectTab(t)
		}
	}

	if err := h.controller.Reload(r.Context()); err != nil && !errors.Is(err, dashboard.ErrStale) {
		h.handleControllerError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK)
}

// New handles GET /dashboard/{type}/new.
func (h *DashboardHandler) New(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entityType(w, r)
	if !ok {
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}

	if err := h.controller.OpenCreate(t); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrNotCreatable):
			flashError(w, r, h.renderer, tabURL(t), "New "+t.Singular()+" records cannot be added here.")
		case errors.Is(err, dashboard.ErrNoPrincipal):
			h.handleControllerError(w, r, err)
		default:
			flashError(w, r, h.renderer, tabURL(t), userMessage(err))
		}
		return
	}
	h.render(w, r, http.StatusOK)
}

// Edit handles GET /dashboard/{type}/{id}/edit.
func (h *DashboardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	t, id, ok := h.entityTypeAndID(w, r)
	if !ok {
		return
	}
	if !model.MustLookup(t).Creatable {
		flashError(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" records cannot be edited.")
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}

	if err := h.controller.OpenEdit(t, id); err != nil {
		if errors.Is(err, dashboard.ErrNotFound) {
			flashError(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" not found")
			return
		}
		h.handleControllerError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK)
}

// Create handles POST /dashboard/{type}.
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entityType(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, tabURL(t), "Invalid form data")
		return
	}

	rec, fieldErrs, err := parseRecord(t, 0, r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fieldErrs != nil {
		h.controller.RejectDraft(dashboard.ModeCreate, 0, rec, fieldErrs)
		h.render(w, r, http.StatusUnprocessableEntity)
		return
	}

	if !h.ensureLoaded(w, r) {
		return
	}
	if err := h.controller.Create(r.Context(), rec); err != nil {
		h.editorFailed(w, r, t, err)
		return
	}

	h.logger.Info("record created", "type", t, "agent_id", middleware.GetAgentID(r))
	flashSuccess(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" created successfully")
}

// Update handles POST /dashboard/{type}/{id}.
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, id, ok := h.entityTypeAndID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, tabURL(t), "Invalid form data")
		return
	}

	rec, fieldErrs, err := parseRecord(t, id, r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fieldErrs != nil {
		h.controller.RejectDraft(dashboard.ModeEdit, id, rec, fieldErrs)
		h.render(w, r, http.StatusUnprocessableEntity)
		return
	}

	if err := h.controller.Update(r.Context(), id, rec); err != nil {
		h.editorFailed(w, r, t, err)
		return
	}

	h.logger.Info("record updated", "type", t, "id", id, "agent_id", middleware.GetAgentID(r))
	flashSuccess(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" updated successfully")
}

// Delete handles POST /dashboard/{type}/{id}/delete.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, id, ok := h.entityTypeAndID(w, r)
	if !ok {
		return
	}

	if err := h.controller.Remove(r.Context(), t, id); err != nil {
		h.rowActionFailed(w, r, t, err)
		return
	}

	h.logger.Info("record deleted", "type", t, "id", id, "agent_id", middleware.GetAgentID(r))
	flashSuccess(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" deleted successfully")
}

// Status handles POST /dashboard/{type}/{id}/status.
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	t, id, ok := h.entityTypeAndID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, tabURL(t), "Invalid form data")
		return
	}

	status := r.PostFormValue("status")
	if !validStatus(t, status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := h.controller.PatchStatus(r.Context(), t, id, status); err != nil {
		if errors.Is(err, api.ErrNoStatus) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		h.rowActionFailed(w, r, t, err)
		return
	}

	h.logger.Info("record status changed", "type", t, "id", id, "status", status, "agent_id", middleware.GetAgentID(r))
	flashSuccess(w, r, h.renderer, tabURL(t), capitalize(t.Singular())+" status updated")
}

// CloseEditor handles POST /dashboard/editor/close.
func (h *DashboardHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	h.controller.CloseEditor()
	http.Redirect(w, r, tabURL(h.controller.Snapshot().Tab), http.StatusSeeOther)
}

// editorFailed re-renders the page with the editor still open on the
// rejected draft.
func (h *DashboardHandler) editorFailed(w http.ResponseWriter, r *http.Request, t model.EntityType, err error) {
	if errors.Is(err, dashboard.ErrNoPrincipal) || errors.Is(err, dashboard.ErrStale) {
		h.handleControllerError(w, r, err)
		return
	}
	h.logger.Warn("record save failed", "type", t, "agent_id", middleware.GetAgentID(r), "error", err)
	h.render(w, r, statusForError(err))
}

func (h *DashboardHandler) rowActionFailed(w http.ResponseWriter, r *http.Request, t model.EntityType, err error) {
	if errors.Is(err, dashboard.ErrNoPrincipal) || errors.Is(err, dashboard.ErrStale) {
		h.handleControllerError(w, r, err)
		return
	}
	h.logger.Warn("row action failed", "type", t, "agent_id", middleware.GetAgentID(r), "error", err)
	flashError(w, r, h.renderer, tabURL(t), userMessage(err))
}

// handleControllerError covers failures that are not about a single record.
// A controller without an agent means the session ended between the gate
// and the handler.
func (h *DashboardHandler) handleControllerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dashboard.ErrNoPrincipal):
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
	case errors.Is(err, dashboard.ErrStale):
		http.Redirect(w, r, redirectDashboard, http.StatusSeeOther)
	default:
		logAndInternalError(w, "dashboard request failed", "error", err, "path", r.URL.Path)
	}
}

// ensureLoaded reloads the lists when the current view has not been
// loaded yet, so quota checks and edits see real records.
func (h *DashboardHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if h.controller.Loaded() {
		return true
	}
	if err := h.controller.Reload(r.Context()); err != nil {
		h.handleControllerError(w, r, err)
		return false
	}
	return true
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int) {
	view := h.controller.Snapshot()
	principal, _ := middleware.GetPrincipal(r)

	page := dashboardPage{
		View:           view,
		Tab:            view.Current(),
		BlogCategories: model.BlogCategories,
		PaymentCycles:  model.PaymentCycles,
		PolicyStatuses: model.PolicyStatuses,
	}
	if ed := view.Editor; ed != nil {
		if p, ok := ed.Draft.(*model.InsuranceProduct); ok {
			page.PlanNames = planNames(view.Plans, p.Title)
		}
	}

	err := h.renderer.RenderStatus(w, r, status, pageDashboard, render.TemplateData{
		Title:     "Dashboard",
		Data:      page,
		Principal: principal,
	})
	if err != nil {
		logAndInternalError(w, "failed to render dashboard", "error", err)
	}
}

// entityType reads the {type} URL parameter, answering 404 for unknown
// types.
func (h *DashboardHandler) entityType(w http.ResponseWriter, r *http.Request) (model.EntityType, bool) {
	t, err := model.ParseEntityType(chi.URLParam(r, "type"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return t, true
}

func (h *DashboardHandler) entityTypeAndID(w http.ResponseWriter, r *http.Request) (model.EntityType, int64, bool) {
	t, ok := h.entityType(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return "", 0, false
	}
	return t, id, true
}

// planNames returns the plans offered for the product title, or every
// known plan when no category matches.
func planNames(categories []model.PlanCategory, title string) []string {
	if names := model.PlanNames(categories, title); len(names) > 0 {
		return names
	}
	seen := make(map[string]bool)
	var all []string
	for _, c := range categories {
		for _, name := range c.Plans {
			if !seen[name] {
				seen[name] = true
				all = append(all, name)
			}
		}
	}
	return all
}

func tabURL(t model.EntityType) string {
	return redirectDashboard + "?tab=" + url.QueryEscape(string(t))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
