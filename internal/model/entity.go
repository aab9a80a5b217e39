// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// EntityType names a content category managed from the dashboard.
type EntityType string

// Entity types, in dashboard tab order.
const (
	TypeHeroSection      EntityType = "hero"
	TypeBlogPost         EntityType = "blog"
	TypeInsuranceProduct EntityType = "insurance"
	TypeTestimonial      EntityType = "testimonial"
	TypeContactInquiry   EntityType = "contact"
	TypePolicyHolder     EntityType = "policyholder"
)

// Record is a content entity with a backend-assigned identifier.
type Record interface {
	RecordID() int64
	EntityType() EntityType
}

// Owned is a record that belongs to exactly one agent.
type Owned interface {
	Record
	SetAgentID(id int64)
}

// Descriptor maps an entity type onto its REST resource and dashboard tab.
type Descriptor struct {
	Type EntityType
	// Path is the resource segment under /api, e.g. "herosection".
	Path string
	// Title is the tab heading.
	Title string
	// Singular is used in messages ("hero section").
	Singular string
	// Creatable is false for records that originate outside the dashboard.
	Creatable bool
	// HasStatus reports whether the resource supports a status patch.
	HasStatus bool
	// New returns an empty record of this type for decoding.
	New func() Record
}

var descriptors = []Descriptor{
	{
		Type: TypeHeroSection, Path: "herosection", Title: "Hero Sections", Singular: "hero section",
		Creatable: true, New: func() Record { return &HeroSection{} },
	},
	{
		Type: TypeBlogPost, Path: "blog", Title: "Blog Posts", Singular: "blog post",
		Creatable: true, New: func() Record { return &BlogPost{} },
	},
	{
		Type: TypeInsuranceProduct, Path: "lifeinsurance", Title: "Life Insurance", Singular: "insurance product",
		Creatable: true, New: func() Record { return &InsuranceProduct{} },
	},
	{
		Type: TypeTestimonial, Path: "testimonial", Title: "Testimonials", Singular: "testimonial",
		Creatable: true, New: func() Record { return &Testimonial{} },
	},
	{
		Type: TypeContactInquiry, Path: "contactdetail", Title: "Contact Details", Singular: "contact inquiry",
		HasStatus: true, New: func() Record { return &ContactInquiry{} },
	},
	{
		Type: TypePolicyHolder, Path: "PolicyHolderDetail", Title: "Policy Holders", Singular: "policy holder",
		Creatable: true, HasStatus: true, New: func() Record { return &PolicyHolder{} },
	},
}

var descriptorsByType = func() map[EntityType]Descriptor {
	m := make(map[EntityType]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Type] = d
	}
	return m
}()

// Descriptors returns all entity descriptors in tab order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Types returns all entity types in tab order.
func Types() []EntityType {
	out := make([]EntityType, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Type
	}
	return out
}

// Lookup returns the descriptor for t.
func Lookup(t EntityType) (Descriptor, bool) {
	d, ok := descriptorsByType[t]
	return d, ok
}

// MustLookup returns the descriptor for t and panics for unknown types.
func MustLookup(t EntityType) Descriptor {
	d, ok := descriptorsByType[t]
	if !ok {
		panic(fmt.Sprintf("model: unknown entity type %q", t))
	}
	return d
}

// ParseEntityType validates s as an entity type.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if _, ok := descriptorsByType[t]; !ok {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// Title returns the tab heading for t, or "" for unknown types.
func (t EntityType) Title() string {
	return descriptorsByType[t].Title
}

// Singular returns the singular display name for t.
func (t EntityType) Singular() string {
	if d, ok := descriptorsByType[t]; ok {
		return d.Singular
	}
	return string(t)
}
