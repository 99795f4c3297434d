// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL query parameters.
package query

import (
	"net/url"
	"strings"
)

// StringSlice parses a single comma-separated query value into a trimmed
// slice of strings. Empty entries are dropped.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// Values collects key from both repeated (?k=a&k=b) and comma-separated
// (?k=a,b) forms, keeping first-seen order and dropping duplicates.
func Values(values url.Values, key string) []string {
	var res []string
	seen := make(map[string]struct{})
	for _, raw := range values[key] {
		for _, v := range StringSlice(raw) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			res = append(res, v)
		}
	}
	return res
}
