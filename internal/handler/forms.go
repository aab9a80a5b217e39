// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/agentdesk/internal/model"
)

// errNotEditable is returned for types the dashboard only lists.
var errNotEditable = errors.New("records of this type cannot be edited")

// textPolicy strips every tag from editor input.
var textPolicy = bluemonday.StrictPolicy()

// recordForm reads editor fields and collects validation errors keyed by
// field name.
type recordForm struct {
	values url.Values
	errs   map[string]string
}

func newRecordForm(values url.Values) *recordForm {
	return &recordForm{values: values, errs: make(map[string]string)}
}

// text returns the trimmed field with markup removed.
func (f *recordForm) text(name string) string {
	s := textPolicy.Sanitize(f.values.Get(name))
	return strings.TrimSpace(html.UnescapeString(s))
}

func (f *recordForm) required(name, label string) string {
	s := f.text(name)
	if s == "" {
		f.fail(name, label+" is required")
	}
	return s
}

// link accepts an empty value, a local path or an absolute http(s) URL.
func (f *recordForm) link(name string, allowPath bool) string {
	s := f.text(name)
	if s == "" {
		return ""
	}
	if allowPath && strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f.fail(name, "Enter a valid http or https URL")
	}
	return s
}

func (f *recordForm) amount(name, label string) model.Amount {
	s := f.text(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.fail(name, label+" must be a number")
		return 0
	}
	if v < 0 {
		f.fail(name, label+" cannot be negative")
		return 0
	}
	return model.Amount(v)
}

func (f *recordForm) nonNegativeInt(name, label string) int {
	s := f.text(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		f.fail(name, label+" must be a whole number of zero or more")
		return 0
	}
	return n
}

func (f *recordForm) date(name, label string) model.Date {
	s := f.text(name)
	if s == "" {
		f.fail(name, label+" is required")
		return model.Date{}
	}
	t, err := model.ParseDate(s)
	if err != nil {
		f.fail(name, "Enter a valid date")
		return model.Date{}
	}
	return model.Date{Time: t}
}

func (f *recordForm) choice(name, label string, valid func(string) bool) string {
	s := f.text(name)
	if !valid(s) {
		f.fail(name, "Choose a valid "+strings.ToLower(label))
	}
	return s
}

// lines splits a textarea into trimmed, non-empty lines.
func (f *recordForm) lines(name string) model.StringList {
	var out model.StringList
	for line := range strings.Lines(f.values.Get(name)) {
		line = strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(line)))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (f *recordForm) fail(name, msg string) {
	if _, ok := f.errs[name]; !ok {
		f.errs[name] = msg
	}
}

// fieldErrors returns nil when every field passed.
func (f *recordForm) fieldErrors() map[string]string {
	if len(f.errs) == 0 {
		return nil
	}
	return f.errs
}

// parseRecord builds a record of type t from a submitted editor form. The
// record is returned even when fields fail so the editor can show the
// draft again.
func parseRecord(t model.EntityType, id int64, values url.Values) (model.Record, map[string]string, error) {
	f := newRecordForm(values)

	var rec model.Record
	switch t {
	case model.TypeHeroSection:
		rec = &model.HeroSection{
			ID:         id,
			Title:      f.required("title", "Title"),
			Subtitle:   f.text("subtitle"),
			ActionText: f.text("actionText"),
			ActionLink: f.link("actionLink", true),
			ImageURL:   f.link("imageUrl", false),
		}
	case model.TypeBlogPost:
		rec = &model.BlogPost{
			ID:            id,
			Title:         f.required("title", "Title"),
			Excerpt:       f.required("excerpt", "Excerpt"),
			Category:      f.choice("category", "Category", model.ValidBlogCategory),
			Author:        f.text("author"),
			PublishedDate: f.date("publishedDate", "Published date"),
			ImageURL:      f.link("imageUrl", false),
			SortingOrder:  model.FlexInt(f.nonNegativeInt("sortingOrder", "Sorting order")),
		}
	case model.TypeInsuranceProduct:
		rec = &model.InsuranceProduct{
			ID:          id,
			Title:       f.required("title", "Title"),
			Subtitle:    f.text("subtitle"),
			Description: f.text("description"),
			IconName:    f.text("iconName"),
			ColorClass:  f.text("colorClass"),
			AgeRange:    f.text("ageRange"),
			MinPremium:  f.amount("minPremium", "Minimum premium"),
			Popular:     values.Get("popular") == "true",
			Features:    f.lines("features"),
			Plans:       f.lines("plans"),
		}
	case model.TypeTestimonial:
		rec = &model.Testimonial{
			ID:              id,
			Name:            f.required("name", "Customer name"),
			Location:        f.text("location"),
			TestimonialText: f.required("testimonialText", "Testimonial"),
			Rating:          f.rating("rating"),
		}
	case model.TypePolicyHolder:
		rec = &model.PolicyHolder{
			ID:               id,
			PolicyHolderName: f.required("policyHolderName", "Policy holder"),
			ContactNumber:    f.required("contactNumber", "Contact number"),
			PolicyName:       f.required("policyName", "Policy"),
			AmountPerCycle:   f.amount("amountPerCycle", "Amount per cycle"),
			PaymentCycle:     f.choice("paymentCycle", "Payment cycle", model.ValidPaymentCycle),
			Status:           f.choice("status", "Status", model.ValidPolicyStatus),
			Remarks:          f.text("remarks"),
		}
	default:
		return nil, nil, fmt.Errorf("%s: %w", t.Singular(), errNotEditable)
	}
	return rec, f.fieldErrors(), nil
}

func (f *recordForm) rating(name string) int {
	n, err := strconv.Atoi(f.text(name))
	if err != nil || n < model.MinRating || n > model.MaxRating {
		f.fail(name, fmt.Sprintf("Rating must be between %d and %d", model.MinRating, model.MaxRating))
		if err != nil {
			return model.MaxRating
		}
		return min(max(n, model.MinRating), model.MaxRating)
	}
	return n
}

// validStatus reports whether status can be set on a record of type t.
func validStatus(t model.EntityType, status string) bool {
	switch t {
	case model.TypeContactInquiry:
		return status == model.ContactStatusOpen || status == model.ContactStatusCompleted
	case model.TypePolicyHolder:
		return model.ValidPolicyStatus(status)
	}
	return false
}
