// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"maps"
	"slices"
	"time"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/model"
)

// TabView is one entity list as rendered.
type TabView struct {
	Type      model.EntityType
	Title     string
	Records   []model.Record
	Err       error
	ErrorText string
	// Limit is the quota maximum, or -1 when unbounded.
	Limit int
	// Remaining is how many more may be created, or -1 when unbounded.
	Remaining int
	Creatable bool
	// CanCreate is Creatable with the quota applied.
	CanCreate bool
	// BlockedText explains why CanCreate is false for a creatable type.
	BlockedText string
	HasStatus   bool
}

// Count returns the number of loaded records.
func (t TabView) Count() int { return len(t.Records) }

// View is a copy of the controller state for rendering. Slices and maps
// are copied, but the records are the controller's own pointers and must
// be treated as read-only.
type View struct {
	ViewID    string
	Active    bool
	Principal model.Principal
	Tab       model.EntityType
	Tabs      []TabView
	Editor    *Editor
	Plans     []model.PlanCategory
	LoadedAt  time.Time
}

// Current returns the selected tab.
func (v View) Current() TabView {
	for _, t := range v.Tabs {
		if t.Type == v.Tab {
			return t
		}
	}
	return TabView{}
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		ViewID:    c.viewID,
		Active:    c.active,
		Principal: c.principal,
		Tab:       c.tab,
		Plans:     slices.Clone(c.plans),
		LoadedAt:  c.loadedAt,
	}
	if !c.active {
		return v
	}

	for _, d := range model.Descriptors() {
		records := slices.Clone(c.lists[d.Type])
		tv := TabView{
			Type:      d.Type,
			Title:     d.Title,
			Records:   records,
			Err:       c.errs[d.Type],
			Limit:     -1,
			Remaining: c.policy.Remaining(d.Type, len(records)),
			Creatable: d.Creatable,
			HasStatus: d.HasStatus,
		}
		if tv.Err != nil {
			tv.ErrorText = "Could not load " + d.Title + ". " + api.UserMessage(tv.Err)
		}
		if n, ok := c.policy.Limit(d.Type); ok {
			tv.Limit = n
		}
		if d.Creatable {
			if err := c.quotaLocked(d.Type); err != nil {
				tv.BlockedText = err.Error()
			} else {
				tv.CanCreate = true
			}
		}
		v.Tabs = append(v.Tabs, tv)
	}
	if c.editor != nil {
		ed := *c.editor
		ed.FieldErrors = maps.Clone(c.editor.FieldErrors)
		v.Editor = &ed
	}
	return v
}
