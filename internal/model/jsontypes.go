// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used by date inputs in editor forms.
const DateLayout = "2006-01-02"

var jsonNull = []byte("null")

// Date is a calendar timestamp that decodes both RFC 3339 timestamps and
// plain YYYY-MM-DD dates, and encodes as an RFC 3339 UTC timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return jsonNull, nil
	}
	return json.Marshal(d.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// InputValue returns the date formatted for an HTML date input.
func (d Date) InputValue() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD date.
// An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date: cannot parse %q", s)
	}
	return t, nil
}

// Amount is a monetary value that decodes from a JSON number or a numeric
// string (the backend uses both).
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	f, err := decodeNumber(data, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 { return float64(a) }

// FlexInt is an integer that decodes from a JSON number, a numeric string,
// or an empty string (zero).
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	i, err := decodeNumber(data, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
	if err != nil {
		return fmt.Errorf("integer: %w", err)
	}
	*n = FlexInt(i)
	return nil
}

func decodeNumber[T int64 | float64](data []byte, parse func(string) (T, error)) (T, error) {
	var zero T
	if bytes.Equal(data, jsonNull) {
		return zero, nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return zero, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return zero, nil
		}
	}
	return parse(s)
}

// StringList is a list of strings that also decodes from a string holding
// a JSON-encoded array, which is how the backend returns aggregated columns.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = items
	return nil
}
