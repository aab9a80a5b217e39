// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"time"

	"github.com/olegiv/agentdesk/internal/model"
)

// Mode says whether the editor creates or edits a record.
type Mode int

// Editor modes.
const (
	ModeCreate Mode = iota + 1
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeCreate {
		return "create"
	}
	return "edit"
}

// Editor is the single editor overlay.
type Editor struct {
	Mode Mode
	Type model.EntityType
	// ID is the record being edited; zero for ModeCreate.
	ID    int64
	Draft model.Record
	// Err is the last submit failure; Message is its user-facing text.
	Err         error
	Message     string
	FieldErrors map[string]string
}

// Title returns the overlay heading, e.g. "Edit blog post".
func (e *Editor) Title() string {
	verb := "Add"
	if e.Mode == ModeEdit {
		verb = "Edit"
	}
	return verb + " " + e.Type.Singular()
}

// NewDraft returns an empty record of type t prefilled with the owner and
// the defaults the editor offers.
func NewDraft(t model.EntityType, p model.Principal, now time.Time) model.Record {
	rec := model.MustLookup(t).New()
	switch r := rec.(type) {
	case *model.BlogPost:
		r.Category = model.DefaultBlogCategory
		r.Author = p.Name
		r.PublishedDate = model.Date{Time: now.UTC().Truncate(24 * time.Hour)}
	case *model.Testimonial:
		r.Rating = model.MaxRating
	case *model.PolicyHolder:
		r.PaymentCycle = model.PaymentCycles[0]
		r.Status = model.PolicyStatuses[0]
	}
	if owned, ok := rec.(model.Owned); ok {
		owned.SetAgentID(p.ID)
	}
	return rec
}
