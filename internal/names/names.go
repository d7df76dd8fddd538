// Package names resolves raw sequence and record identifiers to terminal
// names and selects the input files that take part in a run.
package names

import (
	"strings"
)

// Clean normalizes a raw identifier into a terminal name. Runs of
// whitespace, '#' and '-' collapse to a single underscore; any other byte
// outside letters, digits, '.' and '_' is dropped.
func Clean(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	sep := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '#' || c == '-':
			sep = true
			continue
		case isNameByte(c):
			if sep {
				sb.WriteByte('_')
				sep = false
			}
			sb.WriteByte(c)
		}
	}
	if sep && sb.Len() > 0 {
		sb.WriteByte('_')
	}
	return sb.String()
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '_'
}

// Resolve returns the terminal name for a raw identifier. Unless fullNames
// is set, the identifier is cut at the first '#' to keep the species root.
func Resolve(raw string, fullNames bool) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), ">")
	if !fullNames {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
	}
	return Clean(raw)
}
