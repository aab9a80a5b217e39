// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the agent principal, the content entities managed
// from the dashboard, and the per-type descriptors that map them onto the
// backend REST resources.
package model

import "strconv"

// Principal identifies the logged-in agent.
type Principal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Valid reports whether the principal carries a usable agent id.
func (p Principal) Valid() bool {
	return p.ID > 0
}

// DisplayName returns the agent name, falling back to "Agent".
func (p Principal) DisplayName() string {
	if p.Name == "" {
		return "Agent"
	}
	return p.Name
}

// String implements fmt.Stringer for log output.
func (p Principal) String() string {
	return p.DisplayName() + "#" + strconv.FormatInt(p.ID, 10)
}
