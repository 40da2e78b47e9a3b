// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptor

// extractInt scans buf for a `"key":value` span and parses value as a
// (possibly negative, possibly quoted) decimal integer, spec.md §4.D. It
// tolerates whitespace around the colon and ignores everything else in
// buf, including key order, matching the "key-order-independent" parser
// contract.
func extractInt(buf []byte, key string) (int, bool) {
	v, ok := findValueSpan(buf, key)
	if !ok {
		return 0, false
	}
	v = trimQuotes(trimSpace(v))
	if len(v) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if v[0] == '-' {
		neg = true
		i++
	}
	if i >= len(v) {
		return 0, false
	}
	n := 0
	for ; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, false
		}
		n = n*10 + int(v[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

// extractString scans buf for a `"key":"value"` span, unescaping nothing
// beyond the outer quotes (descriptor strings carry display text only, no
// escape sequences are part of the wire format).
func extractString(buf []byte, key string) (string, bool) {
	v, ok := findValueSpan(buf, key)
	if !ok {
		return "", false
	}
	v = trimSpace(v)
	if len(v) < 2 || v[0] != '"' {
		return "", false
	}
	end := 1
	for end < len(v) && v[end] != '"' {
		end++
	}
	if end >= len(v) {
		return "", false
	}
	return string(v[1:end]), true
}

// findValueSpan locates `"key"` followed (after whitespace) by a colon and
// returns the raw bytes from just past the colon up to the next `,` or `}`
// at depth 0. It does not validate overall object structure; the caller
// decides what a well-formed value looks like.
func findValueSpan(buf []byte, key string) ([]byte, bool) {
	needle := make([]byte, 0, len(key)+2)
	needle = append(needle, '"')
	needle = append(needle, key...)
	needle = append(needle, '"')

	for i := 0; i+len(needle) <= len(buf); i++ {
		if string(buf[i:i+len(needle)]) != string(needle) {
			continue
		}
		j := i + len(needle)
		for j < len(buf) && isSpace(buf[j]) {
			j++
		}
		if j >= len(buf) || buf[j] != ':' {
			continue
		}
		j++
		for j < len(buf) && isSpace(buf[j]) {
			j++
		}
		start := j
		depth := 0
		for j < len(buf) {
			switch buf[j] {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return buf[start:j], true
				}
				depth--
			case ',':
				if depth == 0 {
					return buf[start:j], true
				}
			}
			j++
		}
		return buf[start:j], true
	}
	return nil, false
}

// hasBraces does a minimal structural check: a descriptor missing its
// enclosing braces is ill-formed per spec.md §6 ("parse fail") rather than
// simply lacking a key.
func hasBraces(buf []byte) bool {
	i, j := 0, len(buf)
	for i < j && isSpace(buf[i]) {
		i++
	}
	for j > i && isSpace(buf[j-1]) {
		j--
	}
	return j-i >= 2 && buf[i] == '{' && buf[j-1] == '}'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func trimSpace(b []byte) []byte {
	i, j := 0, len(b)
	for i < j && isSpace(b[i]) {
		i++
	}
	for j > i && isSpace(b[j-1]) {
		j--
	}
	return b[i:j]
}

func trimQuotes(b []byte) []byte {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return b[1 : len(b)-1]
	}
	return b
}
