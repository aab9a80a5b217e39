// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// HeroSection is a landing page banner.
type HeroSection struct {
	ID         int64  `json:"id,omitempty"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ActionText string `json:"actionText"`
	ActionLink string `json:"actionLink"`
	ImageURL   string `json:"imageUrl"`
	AgentID    int64  `json:"AgentId"`
}

func (h *HeroSection) RecordID() int64        { return h.ID }
func (h *HeroSection) EntityType() EntityType { return TypeHeroSection }
func (h *HeroSection) SetAgentID(id int64)    { h.AgentID = id }

// Blog post categories offered by the editor.
var BlogCategories = []string{
	"Others",
	"Life Insurance",
	"Tax Planning",
	"Financial Planning",
	"Investment",
	"Retirement",
}

// DefaultBlogCategory is preselected for new posts.
const DefaultBlogCategory = "Others"

// BlogPost is an article shown on the agent's site.
type BlogPost struct {
	ID            int64   `json:"id,omitempty"`
	Title         string  `json:"title"`
	Excerpt       string  `json:"excerpt"`
	Category      string  `json:"category"`
	Author        string  `json:"author"`
	PublishedDate Date    `json:"publishedDate"`
	ImageURL      string  `json:"imageUrl"`
	SortingOrder  FlexInt `json:"sortingOrder"`
	AgentID       int64   `json:"AgentId"`
}

func (b *BlogPost) RecordID() int64        { return b.ID }
func (b *BlogPost) EntityType() EntityType { return TypeBlogPost }
func (b *BlogPost) SetAgentID(id int64)    { b.AgentID = id }

// UnmarshalJSON accepts the snake_case spellings used by list responses.
func (b *BlogPost) UnmarshalJSON(data []byte) error {
	type plain BlogPost
	aux := struct {
		*plain
		PublishedDateSnake *Date    `json:"published_date"`
		ImageURLSnake      *string  `json:"image_url"`
		SortingOrderSnake  *FlexInt `json:"sorting_order"`
	}{plain: (*plain)(b)}
	if err := unmarshalRecord(data, &aux); err != nil {
		return err
	}
	if aux.PublishedDateSnake != nil && b.PublishedDate.IsZero() {
		b.PublishedDate = *aux.PublishedDateSnake
	}
	if aux.ImageURLSnake != nil && b.ImageURL == "" {
		b.ImageURL = *aux.ImageURLSnake
	}
	if aux.SortingOrderSnake != nil && b.SortingOrder == 0 {
		b.SortingOrder = *aux.SortingOrderSnake
	}
	return nil
}

// InsuranceProduct is a life insurance offering with its features and plans.
// Reads arrive in PascalCase; JSON field matching is case-insensitive.
type InsuranceProduct struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle"`
	Description string     `json:"Description"`
	IconName    string     `json:"IconName"`
	ColorClass  string     `json:"ColorClass"`
	AgeRange    string     `json:"AgeRange"`
	MinPremium  Amount     `json:"MinPremium"`
	Popular     bool       `json:"popular"`
	Features    StringList `json:"features"`
	Plans       StringList `json:"plans"`
	AgentID     int64      `json:"AgentId"`
}

func (p *InsuranceProduct) RecordID() int64        { return p.ID }
func (p *InsuranceProduct) EntityType() EntityType { return TypeInsuranceProduct }
func (p *InsuranceProduct) SetAgentID(id int64)    { p.AgentID = id }

// Testimonial ratings are whole stars in this range.
const (
	MinRating = 1
	MaxRating = 5
)

// Testimonial is a customer quote.
type Testimonial struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	Location        string `json:"location"`
	TestimonialText string `json:"testimonialText"`
	Rating          int    `json:"rating"`
	AgentID         int64  `json:"agentId"`
}

func (t *Testimonial) RecordID() int64        { return t.ID }
func (t *Testimonial) EntityType() EntityType { return TypeTestimonial }
func (t *Testimonial) SetAgentID(id int64)    { t.AgentID = id }

// UnmarshalJSON accepts testimonial_text as well as testimonialText.
func (t *Testimonial) UnmarshalJSON(data []byte) error {
	type plain Testimonial
	aux := struct {
		*plain
		TextSnake *string `json:"testimonial_text"`
	}{plain: (*plain)(t)}
	if err := unmarshalRecord(data, &aux); err != nil {
		return err
	}
	if aux.TextSnake != nil && t.TestimonialText == "" {
		t.TestimonialText = *aux.TextSnake
	}
	return nil
}

// Contact inquiry statuses.
const (
	ContactStatusOpen      = "Y"
	ContactStatusCompleted = "N"
)

// ContactInquiry is a lead submitted by a site visitor.
type ContactInquiry struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PhoneNumber     string `json:"phoneNumber"`
	EmailID         string `json:"emailId"`
	ServiceRequired string `json:"serviceRequired"`
	MessageText     string `json:"messageText"`
	Status          string `json:"status"`
}

func (c *ContactInquiry) RecordID() int64        { return c.ID }
func (c *ContactInquiry) EntityType() EntityType { return TypeContactInquiry }

// IsOpen reports whether the inquiry still needs follow-up.
func (c *ContactInquiry) IsOpen() bool {
	return c.Status == ContactStatusOpen
}

// StatusLabel returns the label shown in the contacts table.
func (c *ContactInquiry) StatusLabel() string {
	if c.IsOpen() {
		return "Active"
	}
	return "Completed"
}

// UnmarshalJSON accepts the snake_case spellings used by list responses.
func (c *ContactInquiry) UnmarshalJSON(data []byte) error {
	type plain ContactInquiry
	aux := struct {
		*plain
		PhoneSnake   *string `json:"phone_number"`
		EmailSnake   *string `json:"email_id"`
		ServiceSnake *string `json:"service_required"`
		MessageSnake *string `json:"message_text"`
	}{plain: (*plain)(c)}
	if err := unmarshalRecord(data, &aux); err != nil {
		return err
	}
	fillString(&c.PhoneNumber, aux.PhoneSnake)
	fillString(&c.EmailID, aux.EmailSnake)
	fillString(&c.ServiceRequired, aux.ServiceSnake)
	fillString(&c.MessageText, aux.MessageSnake)
	return nil
}

// Payment cycles offered by the policy holder editor.
var PaymentCycles = []string{"Monthly", "Quarterly", "Half-Yearly", "Yearly"}

// Policy holder statuses.
var PolicyStatuses = []string{"Active", "Completed", "Passed", "Cancelled", "Lapsed"}

// PolicyHolder is a customer holding a policy sold by the agent.
type PolicyHolder struct {
	ID               int64  `json:"PolicyHolderId,omitempty"`
	PolicyHolderName string `json:"PolicyHolderName"`
	ContactNumber    string `json:"ContactNumber"`
	PolicyName       string `json:"PolicyName"`
	AmountPerCycle   Amount `json:"AmountPerCycle"`
	PaymentCycle     string `json:"PaymentCycle"`
	Status           string `json:"Status"`
	Remarks          string `json:"Remarks"`
	AgentID          int64  `json:"AgentId"`
}

func (p *PolicyHolder) RecordID() int64        { return p.ID }
func (p *PolicyHolder) EntityType() EntityType { return TypePolicyHolder }
func (p *PolicyHolder) SetAgentID(id int64)    { p.AgentID = id }

// ValidPolicyStatus reports whether s is one of PolicyStatuses.
func ValidPolicyStatus(s string) bool {
	return contains(PolicyStatuses, s)
}

// ValidPaymentCycle reports whether s is one of PaymentCycles.
func ValidPaymentCycle(s string) bool {
	return contains(PaymentCycles, s)
}

// ValidBlogCategory reports whether s is one of BlogCategories.
func ValidBlogCategory(s string) bool {
	return contains(BlogCategories, s)
}
