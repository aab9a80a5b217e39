// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import (
	"fmt"
	"sync/atomic"
)

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string `json:"version"`    // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string `json:"git_commit"` // Short git commit hash (e.g., "abc1234")
	BuildTime string `json:"build_time"` // Build timestamp in RFC3339 format
}

// String formats the info for -version output.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}

var current atomic.Pointer[Info]

// Set records the running build. It is called once from main.
func Set(info Info) {
	current.Store(&info)
}

// Current returns the running build, or a "dev" version if Set was not called.
func Current() Info {
	if p := current.Load(); p != nil {
		return *p
	}
	return Info{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"}
}

// Short returns the version string alone.
func Short() string {
	v := Current().Version
	if v == "" {
		return "dev"
	}
	return v
}
