// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/olegiv/agentdesk/internal/model"
)

// Funcs holds the state behind the template functions.
type Funcs struct {
	unit     currency.Unit
	printer  *message.Printer
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewFuncs creates template functions formatting money in the ISO 4217
// currency code. An empty code means INR.
func NewFuncs(code string) (*Funcs, error) {
	if code == "" {
		code = "INR"
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	return &Funcs{
		unit:     unit,
		printer:  message.NewPrinter(language.English),
		markdown: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy:   bluemonday.UGCPolicy(),
	}, nil
}

// Map returns the template.FuncMap.
func (f *Funcs) Map() template.FuncMap {
	return template.FuncMap{
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"inputDate":      InputDate,
		"truncate":       Truncate,
		"money":          f.Money,
		"markdown":       f.Markdown,
		"stars":          Stars,
		"join":           strings.Join,
		"lines":          Lines,
		"add": func(a, b int) int {
			return a + b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
	}
}

// Money formats v with the currency symbol and digit grouping,
// e.g. "₹ 12,500.00".
func (f *Funcs) Money(v any) string {
	var amount float64
	switch x := v.(type) {
	case model.Amount:
		amount = x.Float64()
	case float64:
		amount = x
	case int:
		amount = float64(x)
	case int64:
		amount = float64(x)
	default:
		return ""
	}
	scale, _ := currency.Standard.Rounding(f.unit)
	return f.printer.Sprint(currency.Symbol(f.unit)) + " " +
		f.printer.Sprint(number.Decimal(amount, number.Scale(scale)))
}

// Markdown renders s as Markdown and sanitizes the result for display.
func (f *Funcs) Markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := f.markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(f.policy.SanitizeBytes(buf.Bytes()))
}

// FormatDate formats a model.Date or time.Time as "Jan 2, 2006".
// Zero values render empty.
func FormatDate(v any) string {
	t, ok := asTime(v)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateTime formats a model.Date or time.Time with the time of day.
func FormatDateTime(v any) string {
	t, ok := asTime(v)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

// InputDate formats a date for an <input type="date"> value.
func InputDate(v any) string {
	t, ok := asTime(v)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case model.Date:
		return x.Time, true
	case *model.Date:
		if x == nil {
			return time.Time{}, false
		}
		return x.Time, true
	case time.Time:
		return x, true
	}
	return time.Time{}, false
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Stars renders a rating as filled and empty stars.
func Stars(rating int) string {
	rating = max(model.MinRating-1, min(rating, model.MaxRating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", model.MaxRating-rating)
}

// Lines joins list items one per line for a textarea.
func Lines(list model.StringList) string {
	return strings.Join(list, "\n")
}
