// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteDashboard is the dashboard mount point.
	RouteDashboard = "/dashboard"

	// RouteType is the entity type parameter pattern.
	RouteType = "/{type}"
	// RouteTypeID is the entity type and record ID parameter pattern.
	RouteTypeID = "/{type}/{id}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixStatus is the suffix for status routes.
	RouteSuffixStatus = "/status"
	// RouteEditorClose closes the editor overlay.
	RouteEditorClose = "/editor/close"
)

// Redirect targets.
const (
	redirectLogin     = RouteLogin
	redirectDashboard = RouteDashboard
)

// Page template names.
const (
	pageLogin     = "login"
	pageDashboard = "dashboard"
)
