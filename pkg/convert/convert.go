// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for loosely typed values.

Session payloads written by older clients spell booleans as 0/1 or "true",
and ids as numbers or numeric strings. These helpers collapse those variants
into one Go type without returning errors; use explicit parsing where the
distinction between malformed data and a zero value matters.
*/
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToInt converts a string to an integer, returning 0 if it cannot be parsed.
func ToInt(s string) int {
	if s == "" {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

// ToInt64 converts a decoded JSON value (number or numeric string) to an int64.
func ToInt64(value any) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

// ToBool converts a decoded JSON value to a bool.
//
// Numbers are true when non-zero; strings accept "true", "1", "t" and friends.
func ToBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		f, _ := v.Float64()
		return f != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// ToString converts a decoded JSON value to a string. Numbers are formatted
// without exponent; nil becomes "".
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
