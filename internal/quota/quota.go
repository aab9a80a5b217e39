// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package quota limits how many records of a bounded type an agent may
// create. The check is advisory feedback before a network round-trip; the
// backend remains the authority on what it accepts.
package quota

import (
	"errors"
	"fmt"

	"github.com/olegiv/agentdesk/internal/model"
)

// Default maxima for the bounded types.
const (
	DefaultMaxHeroSections = 10
	DefaultMaxBlogPosts    = 10
	DefaultMaxTestimonials = 10
)

// Sentinels for errors.Is. ErrBlocked matches both kinds of refusal.
var (
	ErrBlocked      = errors.New("create blocked by quota")
	ErrExceeded     = errors.New("quota exceeded")
	ErrUnknownCount = errors.New("quota count unknown")
)

// ExceededError reports a blocked create.
type ExceededError struct {
	Type  model.EntityType
	Limit int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("You can only create up to %d %ss. Delete one to add another.", e.Limit, e.Type.Singular())
}

// Is makes errors.Is(err, ErrExceeded) and errors.Is(err, ErrBlocked) match.
func (e *ExceededError) Is(target error) bool { return target == ErrExceeded || target == ErrBlocked }

// UnknownCountError reports a create on a bounded type whose current
// records could not be counted.
type UnknownCountError struct {
	Type model.EntityType
}

func (e *UnknownCountError) Error() string {
	return fmt.Sprintf("Could not check the %s limit because the list did not load. Reload the dashboard and try again.", e.Type.Singular())
}

// Is makes errors.Is(err, ErrUnknownCount) and errors.Is(err, ErrBlocked) match.
func (e *UnknownCountError) Is(target error) bool {
	return target == ErrUnknownCount || target == ErrBlocked
}

// Policy holds per-type maxima. Types without a positive limit are unbounded.
type Policy struct {
	limits map[model.EntityType]int
}

// New returns a policy with the given limits. Non-positive limits are dropped.
func New(limits map[model.EntityType]int) *Policy {
	p := &Policy{limits: make(map[model.EntityType]int, len(limits))}
	for t, n := range limits {
		if n > 0 {
			p.limits[t] = n
		}
	}
	return p
}

// Default returns the policy with the default maxima.
func Default() *Policy {
	return New(map[model.EntityType]int{
		model.TypeHeroSection: DefaultMaxHeroSections,
		model.TypeBlogPost:    DefaultMaxBlogPosts,
		model.TypeTestimonial: DefaultMaxTestimonials,
	})
}

// Limit returns the maximum for t and whether t is bounded.
func (p *Policy) Limit(t model.EntityType) (int, bool) {
	n, ok := p.limits[t]
	return n, ok
}

// CanCreate reports whether another record of type t may be created when
// currentCount already exist.
func (p *Policy) CanCreate(t model.EntityType, currentCount int) bool {
	n, ok := p.limits[t]
	return !ok || currentCount < n
}

// Check is CanCreate returning an *ExceededError when blocked.
func (p *Policy) Check(t model.EntityType, currentCount int) error {
	if p.CanCreate(t, currentCount) {
		return nil
	}
	return &ExceededError{Type: t, Limit: p.limits[t]}
}

// CheckCount is Check for a count that may not be known. Bounded types
// with an unknown count are refused with an *UnknownCountError.
func (p *Policy) CheckCount(t model.EntityType, currentCount int, known bool) error {
	if _, bounded := p.limits[t]; bounded && !known {
		return &UnknownCountError{Type: t}
	}
	return p.Check(t, currentCount)
}

// Remaining returns how many more records of type t may be created, or -1
// for unbounded types.
func (p *Policy) Remaining(t model.EntityType, currentCount int) int {
	n, ok := p.limits[t]
	if !ok {
		return -1
	}
	return max(n-currentCount, 0)
}
