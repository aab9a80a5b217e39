// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2025-01-30T12:00:00Z",
	}

	want := "v1.0.0 (commit: abc1234, built: 2025-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCurrent(t *testing.T) {
	t.Cleanup(func() { current.Store(nil) })

	if got := Short(); got != "dev" {
		t.Errorf("Short() before Set = %q, want dev", got)
	}

	Set(Info{Version: "v0.3.1", GitCommit: "deadbee"})
	if got := Current().GitCommit; got != "deadbee" {
		t.Errorf("Current().GitCommit = %q, want deadbee", got)
	}
	if got := Short(); got != "v0.3.1" {
		t.Errorf("Short() = %q, want v0.3.1", got)
	}

	Set(Info{})
	if got := Short(); got != "dev" {
		t.Errorf("Short() with empty version = %q, want dev", got)
	}
}
