package assessment

import "strings"

// nextObject finds the first '{' at or after from whose braces balance and
// returns the span's bounds (end inclusive). Braces inside JSON strings are
// ignored. A '{' that is never closed is skipped.
func nextObject(s string, from int) (start, end int, ok bool) {
	for i := from; i < len(s); {
		start := strings.IndexByte(s[i:], '{')
		if start < 0 {
			break
		}
		start += i
		if end := matchBrace(s, start); end >= 0 {
			return start, end, true
		}
		i = start + 1
	}
	return 0, 0, false
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// outerSpan is the first '{' through the last '}'.
func outerSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
