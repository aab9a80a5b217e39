// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// PlanCategory groups the plan names an agent can attach to a product.
type PlanCategory struct {
	Title string     `json:"title"`
	Plans StringList `json:"plan_Name"`
}

// PlanNames returns the plan names for the category with the given title.
func PlanNames(categories []PlanCategory, title string) []string {
	for _, c := range categories {
		if c.Title == title {
			return c.Plans
		}
	}
	return nil
}

func unmarshalRecord(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func fillString(dst *string, alt *string) {
	if alt != nil && *dst == "" {
		*dst = *alt
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
