package assessment

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// lookup finds a key in obj, trying each name exactly before falling back to
// a case-insensitive match.
func lookup(obj map[string]interface{}, names ...string) (interface{}, bool) {
	if obj == nil {
		return nil, false
	}
	for _, n := range names {
		if v, ok := obj[n]; ok {
			return v, true
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, n := range names {
		for _, k := range keys {
			if strings.EqualFold(strings.TrimSpace(k), n) {
				return obj[k], true
			}
		}
	}
	return nil, false
}

func asObject(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// asNumber reads JSON numbers and numeric strings ("85", "85%"). Anything else
// is 0.
func asNumber(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil && !math.IsInf(parsed, 0) {
			return 0
		}
		f = parsed
	case float64:
		f = n
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return f
}

func score(v interface{}) float64 {
	return clamp(asNumber(v))
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}

// asStrings accepts a list or a single string. Non-string entries other than
// numbers are dropped. The result is never nil.
func asStrings(v interface{}) []string {
	out := []string{}
	switch list := v.(type) {
	case []interface{}:
		for _, item := range list {
			switch item.(type) {
			case string, json.Number:
				if s := strings.TrimSpace(asString(item)); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if s := strings.TrimSpace(list); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniqueStrings trims, drops blanks and keeps the first of each duplicate.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
